package domain

// Identity is the caller derived from the bearer token's claims.
type Identity struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Source    string `json:"source,omitempty"`
	ChatID    string `json:"chat_id,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	NickName  string `json:"nick_name,omitempty"`
}

// HasAnyRole reports whether the identity's role is one of roles.
func (i *Identity) HasAnyRole(roles ...Role) bool {
	if i == nil || i.Role == "" {
		return false
	}
	for _, r := range roles {
		if r == i.Role {
			return true
		}
	}
	return false
}
