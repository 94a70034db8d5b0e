package domain

import "time"

// Role enumerates the helpdesk roles.
type Role string

const (
	RoleAdmin      Role = "ADM"
	RoleTechnician Role = "TEC"
	RoleCustomer   Role = "USR"
)

// IsValid reports whether r is a recognized role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTechnician, RoleCustomer:
		return true
	}
	return false
}

// User is anyone who can act on the helpdesk.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
