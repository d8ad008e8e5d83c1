package domain

import "time"

// Role enumerates the closed set of user roles.
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleStaff    Role = "Staff"
	RoleManager  Role = "Manager"
	RoleAdmin    Role = "Admin"
)

// ValidRole reports whether r is a member of the role enumeration.
func ValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User is the domain model for a registered principal.
type User struct {
	ID           string
	Name         string
	Email        string
	Address      string
	PhoneNumber  string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
