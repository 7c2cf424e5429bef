package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-crm/meridian/internal/access"
	"github.com/meridian-crm/meridian/internal/auth"
	"github.com/meridian-crm/meridian/internal/catalog"
	"github.com/meridian-crm/meridian/internal/crm"
	"github.com/meridian-crm/meridian/internal/gate"
	"github.com/meridian-crm/meridian/internal/observability"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Gate           *gate.Gate
	AuthHandler    *auth.Handler
	UsersHandler   *users.Handler
	CatalogHandler *catalog.Handler
	CRMHandler     *crm.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Hands out the CSRF token tied to the caller's session. Mutating
	// endpoints outside /auth/login and /auth/register require it.
	r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			params.Logger.Error("ensure csrf token", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"` + token + `"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.Gate.WithPrincipal)

		r.Get("/nav", params.Gate.HandleNav)
		r.Get("/portal", params.CRMHandler.HandlePortal)

		// Staff areas. Client-role principals are routed to the portal
		// before any resource check runs.
		r.Group(func(r chi.Router) {
			r.Use(params.Gate.RedirectClients)

			r.With(params.Gate.Protect(access.ResourceDashboard)).
				Get("/dashboard", params.CRMHandler.HandleDashboard)
			r.With(params.Gate.Protect(access.ResourceDashboard)).
				Get("/", params.CRMHandler.HandleDashboard)

			r.Route("/products", func(r chi.Router) {
				r.Use(params.Gate.Protect(access.ResourceProducts))
				params.CatalogHandler.MountProducts(r)
			})
			r.Route("/suppliers", func(r chi.Router) {
				r.Use(params.Gate.Protect(access.ResourceSuppliers))
				params.CatalogHandler.MountSuppliers(r)
			})
			r.Route("/inventory", func(r chi.Router) {
				r.Use(params.Gate.Protect(access.ResourceInventory))
				params.CatalogHandler.MountInventory(r)
			})
			r.Route("/clients", func(r chi.Router) {
				r.Use(params.Gate.Protect(access.ResourceClients))
				params.CRMHandler.MountClients(r)
			})
			r.Route("/projects", func(r chi.Router) {
				r.Use(params.Gate.Protect(access.ResourceProjects))
				params.CRMHandler.MountProjects(r)
			})
			r.Route("/orders", func(r chi.Router) {
				r.Use(params.Gate.Protect(access.ResourceOrders))
				params.CRMHandler.MountOrders(r)
			})
			r.Route("/users", func(r chi.Router) {
				r.Use(params.Gate.Protect(access.ResourceUsers))
				params.UsersHandler.MountRoutes(r)
			})
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
