package auth

import (
	"github.com/clickfood/webapp/internal/domain"
)

// ReasonInsufficientPermissions marks a redirect of an authenticated identity
// whose role is outside the required set.
const ReasonInsufficientPermissions = "insufficient_permissions"

// DefaultPublicRedirect is where PublicOnly sends an authenticated session.
const DefaultPublicRedirect = "/webapp"

// DecisionKind is the outcome of a route guard evaluation.
type DecisionKind int

const (
	DecisionLoading DecisionKind = iota
	DecisionRedirect
	DecisionAllow
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionLoading:
		return "loading"
	case DecisionRedirect:
		return "redirect"
	case DecisionAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// NavState travels with a redirect so the target can restore the attempted
// location. Reason is empty for an unauthenticated redirect.
type NavState struct {
	From   string `json:"from,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// GuardOptions parameterizes a protected subtree.
type GuardOptions struct {
	// Roles, when non-empty, restricts the subtree to these roles.
	Roles []domain.Role
	// RedirectTo defaults to the application root.
	RedirectTo string
}

// Decision is what a guard wants done with a navigation.
type Decision struct {
	Kind   DecisionKind
	Target string
	State  NavState
}

// Decide evaluates a protected navigation to location.
func Decide(state State, opts GuardOptions, location string) Decision {
	target := opts.RedirectTo
	if target == "" {
		target = RootPath
	}

	switch {
	case state.IsInitializing:
		return Decision{Kind: DecisionLoading}
	case !state.IsAuthenticated:
		return Decision{Kind: DecisionRedirect, Target: target, State: NavState{From: location}}
	case len(opts.Roles) > 0 && !state.Identity.HasAnyRole(opts.Roles...):
		return Decision{
			Kind:   DecisionRedirect,
			Target: target,
			State:  NavState{From: location, Reason: ReasonInsufficientPermissions},
		}
	default:
		return Decision{Kind: DecisionAllow}
	}
}

// DecidePublicOnly evaluates a navigation to a page meant only for
// unauthenticated visitors, such as the login page.
func DecidePublicOnly(state State, incoming NavState, redirectTo string) Decision {
	if !state.IsAuthenticated {
		return Decision{Kind: DecisionAllow}
	}
	target := incoming.From
	if target == "" {
		target = redirectTo
	}
	if target == "" {
		target = DefaultPublicRedirect
	}
	return Decision{Kind: DecisionRedirect, Target: target}
}
