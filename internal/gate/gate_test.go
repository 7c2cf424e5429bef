package gate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/access"
	"github.com/meridian-crm/meridian/internal/identity"
)

type recordingCounter struct {
	mu        sync.Mutex
	decisions map[string][]bool
}

func (c *recordingCounter) RecordDecision(resource string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.decisions == nil {
		c.decisions = make(map[string][]bool)
	}
	c.decisions[resource] = append(c.decisions[resource], allowed)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithPrincipal(role access.Role) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/inventory", nil)
	p := &identity.Principal{ID: "u1", Email: "u@example.com", Role: role}
	return req.WithContext(ContextWithPrincipal(req.Context(), p))
}

func TestProtectAllowsGrantedRole(t *testing.T) {
	counter := &recordingCounter{}
	g := New(nil, nil, counter)

	res := httptest.NewRecorder()
	g.Protect(access.ResourceInventory)(okHandler()).ServeHTTP(res, requestWithPrincipal(access.RoleProduction))

	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, []bool{true}, counter.decisions["inventory"])
}

func TestProtectDeniesUngrantedRole(t *testing.T) {
	counter := &recordingCounter{}
	g := New(nil, nil, counter)

	res := httptest.NewRecorder()
	g.Protect(access.ResourceClients)(okHandler()).ServeHTTP(res, requestWithPrincipal(access.RoleProduction))

	require.Equal(t, http.StatusForbidden, res.Code)
	require.Equal(t, []bool{false}, counter.decisions["clients"])
	// The denial must not name the resource.
	require.NotContains(t, res.Body.String(), "clients")
}

func TestProtectRejectsAnonymous(t *testing.T) {
	g := New(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	res := httptest.NewRecorder()
	g.Protect(access.ResourceDashboard)(okHandler()).ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRedirectClientsSendsClientToPortal(t *testing.T) {
	g := New(nil, nil, nil)

	res := httptest.NewRecorder()
	g.RedirectClients(okHandler()).ServeHTTP(res, requestWithPrincipal(access.RoleClient))

	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, PortalPath, res.Header().Get("Location"))
}

func TestRedirectClientsPassesOtherRoles(t *testing.T) {
	g := New(nil, nil, nil)

	res := httptest.NewRecorder()
	g.RedirectClients(okHandler()).ServeHTTP(res, requestWithPrincipal(access.RoleField))

	require.Equal(t, http.StatusOK, res.Code)
}

func TestNavItemsFiltered(t *testing.T) {
	items := NavItems(access.RoleProduction)
	got := make([]string, 0, len(items))
	for _, item := range items {
		got = append(got, item.Resource)
	}
	require.Equal(t, []string{"dashboard", "products", "suppliers", "inventory"}, got)
}

func TestNavItemsSuperAdminSeesAll(t *testing.T) {
	require.Len(t, NavItems(access.RoleSuperAdmin), len(access.Resources()))
}

func TestHandleNavAnonymousEmpty(t *testing.T) {
	g := New(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/nav", nil)
	res := httptest.NewRecorder()
	g.HandleNav(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var items []NavItem
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &items))
	require.Empty(t, items)
}

func TestHandleNavFieldRole(t *testing.T) {
	g := New(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/nav", nil)
	req = req.WithContext(ContextWithPrincipal(context.Background(), &identity.Principal{ID: "u1", Role: access.RoleField}))
	res := httptest.NewRecorder()
	g.HandleNav(res, req)

	var items []NavItem
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &items))
	require.Len(t, items, 3)
	for _, item := range items {
		require.NotEqual(t, "users", item.Resource)
	}
}
