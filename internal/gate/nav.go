package gate

import (
	"net/http"

	"github.com/meridian-crm/meridian/internal/access"
	"github.com/meridian-crm/meridian/internal/platform/httpx"
)

// NavItem is one navigation entry the UI may render.
type NavItem struct {
	Resource string `json:"resource"`
	Label    string `json:"label"`
	Path     string `json:"path"`
}

// navLabels maps resources to their menu labels. The policy table is the
// only source of grants; labels are presentation only.
var navLabels = map[access.Resource]string{
	access.ResourceDashboard: "Dashboard",
	access.ResourceProducts:  "Products",
	access.ResourceClients:   "Clients",
	access.ResourceProjects:  "Projects",
	access.ResourceSuppliers: "Suppliers",
	access.ResourceOrders:    "Orders",
	access.ResourceInventory: "Inventory",
	access.ResourceAIAdvisor: "AI Advisor",
	access.ResourceReports:   "Reports",
	access.ResourceUsers:     "Users",
}

// NavItems returns the navigation entries the role may access, in
// declaration order. Denied resources never appear.
func NavItems(role access.Role) []NavItem {
	items := make([]NavItem, 0, len(navLabels))
	for _, res := range access.Resources() {
		if !access.CanAccess(role, string(res)) {
			continue
		}
		items = append(items, NavItem{
			Resource: string(res),
			Label:    navLabels[res],
			Path:     "/" + string(res),
		})
	}
	return items
}

// HandleNav serves the filtered navigation for the current principal.
func (g *Gate) HandleNav(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.JSON(w, http.StatusOK, []NavItem{})
		return
	}
	httpx.JSON(w, http.StatusOK, NavItems(principal.Role))
}
