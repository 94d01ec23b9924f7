package auth

import (
	"github.com/gofiber/fiber/v2"
)

const sessionKey = "auth_session"

// LoadingPlaceholder is rendered while the session is still initializing.
const LoadingPlaceholder = `<!doctype html><html><body><div class="app-loading">Loading...</div></body></html>`

// DecisionRecorder observes guard outcomes.
type DecisionRecorder interface {
	RecordGuardDecision(kind, reason string)
}

// Provide makes session available to every downstream handler.
func Provide(session *Session) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(sessionKey, session)
		return c.Next()
	}
}

// SessionFromContext retrieves the session placed by Provide.
func SessionFromContext(c *fiber.Ctx) (*Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	session, ok := val.(*Session)
	return session, ok && session != nil
}

// MustSession is SessionFromContext for handlers that cannot run without a
// session. Using it outside Provide is a programming error and panics.
func MustSession(c *fiber.Ctx) *Session {
	session, ok := SessionFromContext(c)
	if !ok {
		panic("auth: session read outside of a handler chain wrapped by auth.Provide")
	}
	return session
}

// Guard turns guard decisions into fiber responses.
type Guard struct {
	recorder DecisionRecorder
}

// NewGuard constructs a guard. recorder may be nil.
func NewGuard(recorder DecisionRecorder) *Guard {
	return &Guard{recorder: recorder}
}

// Protected gates the routes it wraps.
func (g *Guard) Protected(opts GuardOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := MustSession(c)
		decision := Decide(session.State(), opts, c.OriginalURL())
		g.record(decision)

		switch decision.Kind {
		case DecisionLoading:
			c.Set(fiber.HeaderCacheControl, "no-store")
			c.Type("html")
			return c.Status(fiber.StatusOK).SendString(LoadingPlaceholder)
		case DecisionRedirect:
			WriteNavState(c, decision.State)
			return c.Redirect(decision.Target, fiber.StatusFound)
		default:
			return c.Next()
		}
	}
}

// PublicOnly lets only unauthenticated sessions through. An authenticated
// one goes back to where it came from, or to redirectTo.
func (g *Guard) PublicOnly(redirectTo string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := MustSession(c)
		incoming, _ := ReadNavState(c)
		decision := DecidePublicOnly(session.State(), incoming, redirectTo)
		g.record(decision)

		if decision.Kind == DecisionRedirect {
			return c.Redirect(decision.Target, fiber.StatusFound)
		}
		if incoming.From != "" {
			c.Locals(navStateKey, incoming)
		}
		return c.Next()
	}
}

const navStateKey = "nav_state"

// NavStateFromContext returns the navigation state PublicOnly consumed for
// the current request.
func NavStateFromContext(c *fiber.Ctx) (NavState, bool) {
	st, ok := c.Locals(navStateKey).(NavState)
	return st, ok
}

func (g *Guard) record(d Decision) {
	if g == nil || g.recorder == nil {
		return
	}
	g.recorder.RecordGuardDecision(d.Kind.String(), d.State.Reason)
}
