package crm

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-crm/meridian/internal/gate"
	"github.com/meridian-crm/meridian/internal/platform/httpx"
)

// ListerPort exposes CRM reads to the HTTP layer.
type ListerPort interface {
	ListClients(ctx context.Context) ([]Client, error)
	ListProjects(ctx context.Context) ([]Project, error)
	ListOrders(ctx context.Context) ([]Order, error)
	ListOrdersForEmail(ctx context.Context, email string) ([]Order, error)
	Counts(ctx context.Context) (map[string]int64, error)
}

// Handler serves the CRM areas plus the dashboard summary and the client
// self-service portal.
type Handler struct {
	logger *slog.Logger
	repo   ListerPort
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, repo ListerPort) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, repo: repo}
}

// MountClients registers client routes.
func (h *Handler) MountClients(r chi.Router) {
	r.Get("/", h.list(func(ctx context.Context) (any, error) {
		return h.repo.ListClients(ctx)
	}))
}

// MountProjects registers project routes.
func (h *Handler) MountProjects(r chi.Router) {
	r.Get("/", h.list(func(ctx context.Context) (any, error) {
		return h.repo.ListProjects(ctx)
	}))
}

// MountOrders registers order routes.
func (h *Handler) MountOrders(r chi.Router) {
	r.Get("/", h.list(func(ctx context.Context) (any, error) {
		return h.repo.ListOrders(ctx)
	}))
}

// HandleDashboard serves the record-count summary.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.repo.Counts(r.Context())
	if err != nil {
		h.logger.Error("dashboard counts", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, counts)
}

// HandlePortal serves the client self-service view: the principal and the
// orders tied to their email. This area sits outside the general resource
// gate; client-role principals are routed here.
func (h *Handler) HandlePortal(w http.ResponseWriter, r *http.Request) {
	principal := gate.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	orders, err := h.repo.ListOrdersForEmail(r.Context(), principal.Email)
	if err != nil {
		h.logger.Error("portal orders", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"principal": principal,
		"orders":    orders,
	})
}

func (h *Handler) list(load func(context.Context) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := load(r.Context())
		if err != nil {
			h.logger.Error("crm list", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		httpx.JSON(w, http.StatusOK, data)
	}
}
