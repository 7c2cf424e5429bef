package access

import "strings"

// Resource identifies a navigable area of the application. Resources are the
// unit of access control; row-level or field-level permissions are not
// expressed at this layer.
type Resource string

const (
	ResourceDashboard Resource = "dashboard"
	ResourceProducts  Resource = "products"
	ResourceClients   Resource = "clients"
	ResourceProjects  Resource = "projects"
	ResourceSuppliers Resource = "suppliers"
	ResourceOrders    Resource = "orders"
	ResourceInventory Resource = "inventory"
	ResourceAIAdvisor Resource = "ai-advisor"
	ResourceReports   Resource = "reports"
	ResourceUsers     Resource = "users"
)

// Resources lists every declared resource in navigation order.
func Resources() []Resource {
	return []Resource{
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
	}
}

// NormalizePath maps a requested route path onto a canonical Resource
// identifier. A single leading separator is stripped; the empty or root path
// means the dashboard. Unknown paths normalize to a string that is not a
// member of any policy set and therefore deny.
func NormalizePath(path string) Resource {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return ResourceDashboard
	}
	return Resource(path)
}

// String implements fmt.Stringer.
func (r Resource) String() string {
	return string(r)
}
