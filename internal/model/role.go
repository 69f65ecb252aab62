package model

// Role is an account's access level.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleMentor  Role = "mentor"
	RoleStudent Role = "student"
)

// Valid reports whether r is an assignable role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMentor, RoleStudent:
		return true
	}
	return false
}

// Staff reports whether r may use the staff dashboard.
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleMentor
}
