package domain

// Actor is the trusted identity of the caller, supplied by the auth layer.
type Actor struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
