package access

import "strings"

// Role is a high-level permission grouping assigned to a user profile.
type Role string

// Declared roles. Assignment is an administrative action; the role is stored
// on the user's profile record.
const (
	RoleSuperAdmin      Role = "super_admin"
	RoleProduction      Role = "production"
	RoleField           Role = "field"
	RoleCustomerService Role = "customer_service"
	RoleClient          Role = "client"
)

// Roles lists every declared role.
func Roles() []Role {
	return []Role{
		RoleSuperAdmin,
		RoleProduction,
		RoleField,
		RoleCustomerService,
		RoleClient,
	}
}

// ParseRole maps a stored role string onto the closed Role set. Values that
// do not match a declared role coerce to RoleClient, the least-privileged
// role; an elevated default would turn a data problem into a security hole.
func ParseRole(s string) Role {
	switch Role(strings.TrimSpace(s)) {
	case RoleSuperAdmin:
		return RoleSuperAdmin
	case RoleProduction:
		return RoleProduction
	case RoleField:
		return RoleField
	case RoleCustomerService:
		return RoleCustomerService
	case RoleClient:
		return RoleClient
	default:
		return RoleClient
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleProduction, RoleField, RoleCustomerService, RoleClient:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}
