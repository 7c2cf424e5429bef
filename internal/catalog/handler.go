package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-crm/meridian/internal/platform/httpx"
	"github.com/meridian-crm/meridian/internal/shared"
)

// ListerPort exposes catalog reads to the HTTP layer.
type ListerPort interface {
	ListProducts(ctx context.Context, limit, offset int) ([]Product, error)
	CountProducts(ctx context.Context) (int, error)
	ListSuppliers(ctx context.Context, limit, offset int) ([]Supplier, error)
	CountSuppliers(ctx context.Context) (int, error)
	ListStockLevels(ctx context.Context, limit, offset int) ([]StockLevel, error)
	CountStockLevels(ctx context.Context) (int, error)
}

// Handler serves the catalog areas. The router gates each mount on its
// resource; the handler itself performs no authorization.
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

// MountProducts registers product routes.
func (h *Handler) MountProducts(r chi.Router) {
	r.Get("/", h.list(
		func(ctx context.Context, limit, offset int) (any, error) {
			return h.repo.ListProducts(ctx, limit, offset)
		},
		h.repo.CountProducts,
	))
}

// MountSuppliers registers supplier routes.
func (h *Handler) MountSuppliers(r chi.Router) {
	r.Get("/", h.list(
		func(ctx context.Context, limit, offset int) (any, error) {
			return h.repo.ListSuppliers(ctx, limit, offset)
		},
		h.repo.CountSuppliers,
	))
}

// MountInventory registers inventory routes.
func (h *Handler) MountInventory(r chi.Router) {
	r.Get("/", h.list(
		func(ctx context.Context, limit, offset int) (any, error) {
			return h.repo.ListStockLevels(ctx, limit, offset)
		},
		h.repo.CountStockLevels,
	))
}

type pagedResponse struct {
	Items      any               `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(load func(context.Context, int, int) (any, error), count func(context.Context) (int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

		total, err := count(r.Context())
		if err != nil {
			h.logger.Error("catalog count", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		pagination := shared.NewPagination(page, perPage, total)

		data, err := load(r.Context(), pagination.PerPage, (pagination.Page-1)*pagination.PerPage)
		if err != nil {
			h.logger.Error("catalog list", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		httpx.JSON(w, http.StatusOK, pagedResponse{Items: data, Pagination: pagination})
	}
}
