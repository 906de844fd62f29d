package models

// Role is the closed set of user roles in the system.
type Role string

const (
	RoleTenant  Role = "tenant"
	RoleManager Role = "manager"
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleTenant, RoleManager, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// Actor identifies who is performing an operation. Every lifecycle
// mutation requires an actor so the audit trail can record provenance.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}
