package domain

// Role enumerates the storefront's access roles.
type Role string

const (
	RoleUser       Role = "user"
	RolePartner    Role = "partner"
	RoleSuperadmin Role = "superadmin"
)

// Roles lists every recognized role.
var Roles = []Role{RoleUser, RolePartner, RoleSuperadmin}

// ParseRole maps a claim value onto the closed role set.
// Anything unrecognized yields the empty role, which satisfies no requirement.
func ParseRole(value string) Role {
	switch Role(value) {
	case RoleUser, RolePartner, RoleSuperadmin:
		return Role(value)
	default:
		return ""
	}
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	return ParseRole(string(r)) != ""
}

// AuthStatus is the observable authentication state of a session.
type AuthStatus string

const (
	StatusAuthenticated   AuthStatus = "authenticated"
	StatusUnauthenticated AuthStatus = "unauthenticated"
)
