package access

import "fmt"

// rolePolicies is the complete allow-list per role, fixed at build time.
// Absence from a set means deny; there is no deny-list and no wildcard.
// Client-role users only know about the dashboard here — they are routed to
// the self-service portal before the general resource set is consulted.
var rolePolicies = map[Role]map[Resource]struct{}{
	RoleSuperAdmin: resourceSet(
		ResourceDashboard,
		ResourceProducts,
		ResourceClients,
		ResourceProjects,
		ResourceSuppliers,
		ResourceOrders,
		ResourceInventory,
		ResourceAIAdvisor,
		ResourceReports,
		ResourceUsers,
	),
	RoleProduction: resourceSet(
		ResourceDashboard,
		ResourceProducts,
		ResourceInventory,
		ResourceSuppliers,
	),
	RoleField: resourceSet(
		ResourceDashboard,
		ResourceProjects,
		ResourceClients,
	),
	RoleCustomerService: resourceSet(
		ResourceDashboard,
		ResourceProjects,
		ResourceOrders,
		ResourceClients,
	),
	RoleClient: resourceSet(
		ResourceDashboard,
	),
}

func resourceSet(resources ...Resource) map[Resource]struct{} {
	set := make(map[Resource]struct{}, len(resources))
	for _, r := range resources {
		set[r] = struct{}{}
	}
	return set
}

// AllowedResources returns the resources the role may access, in declaration
// order. The result is a copy; callers cannot mutate the policy.
func AllowedResources(role Role) []Resource {
	set, ok := rolePolicies[role]
	if !ok {
		return nil
	}
	allowed := make([]Resource, 0, len(set))
	for _, r := range Resources() {
		if _, ok := set[r]; ok {
			allowed = append(allowed, r)
		}
	}
	return allowed
}

// ValidatePolicy checks that every declared role has a policy entry. An
// unmapped role is a configuration error and must abort startup rather than
// surface as runtime denials.
func ValidatePolicy() error {
	for _, role := range Roles() {
		if _, ok := rolePolicies[role]; !ok {
			return fmt.Errorf("access: role %q has no policy entry", role)
		}
	}
	return nil
}
