package users

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-crm/meridian/internal/access"
	"github.com/meridian-crm/meridian/internal/gate"
	"github.com/meridian-crm/meridian/internal/platform/httpx"
)

// Handler wires user administration endpoints. The router mounts it behind
// the gate for the users resource.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Put("/{id}/role", h.changeRole)
	r.Post("/{id}/deactivate", h.deactivate)
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      string(u.Role),
			IsActive:  u.IsActive,
			CreatedAt: u.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body must be valid JSON")
		return
	}
	err := h.service.ChangeRole(r.Context(), actorID(r), chi.URLParam(r, "id"), access.Role(req.Role))
	switch {
	case errors.Is(err, ErrInvalidRole):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown role")
	case IsNotFound(err):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such user")
	case err != nil:
		h.logger.Error("change role", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// actorID identifies the administrator performing the request.
func actorID(r *http.Request) string {
	if p := gate.PrincipalFromContext(r.Context()); p != nil {
		return p.ID
	}
	return ""
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	err := h.service.Deactivate(r.Context(), actorID(r), chi.URLParam(r, "id"))
	switch {
	case IsNotFound(err):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such user")
	case err != nil:
		h.logger.Error("deactivate user", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
