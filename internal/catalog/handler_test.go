package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type stubLister struct {
	products  []Product
	lastLimit int
	lastOff   int
}

func (s *stubLister) ListProducts(ctx context.Context, limit, offset int) ([]Product, error) {
	s.lastLimit, s.lastOff = limit, offset
	end := offset + limit
	if end > len(s.products) {
		end = len(s.products)
	}
	if offset >= len(s.products) {
		return nil, nil
	}
	return s.products[offset:end], nil
}

func (s *stubLister) CountProducts(ctx context.Context) (int, error) {
	return len(s.products), nil
}

func (s *stubLister) ListSuppliers(ctx context.Context, limit, offset int) ([]Supplier, error) {
	return nil, nil
}

func (s *stubLister) CountSuppliers(ctx context.Context) (int, error) { return 0, nil }

func (s *stubLister) ListStockLevels(ctx context.Context, limit, offset int) ([]StockLevel, error) {
	return nil, nil
}

func (s *stubLister) CountStockLevels(ctx context.Context) (int, error) { return 0, nil }

func TestListProductsPaginates(t *testing.T) {
	lister := &stubLister{}
	for i := 0; i < 45; i++ {
		lister.products = append(lister.products, Product{ID: int64(i + 1), SKU: "sku"})
	}
	handler := NewHandler(nil, lister)

	router := chi.NewRouter()
	router.Route("/products", handler.MountProducts)

	req := httptest.NewRequest(http.MethodGet, "/products/?page=2&per_page=20", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if lister.lastLimit != 20 || lister.lastOff != 20 {
		t.Fatalf("expected limit 20 offset 20, got %d/%d", lister.lastLimit, lister.lastOff)
	}

	var body struct {
		Items      []Product `json:"items"`
		Pagination struct {
			Page       int `json:"page"`
			PerPage    int `json:"per_page"`
			Total      int `json:"total"`
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Items) != 20 {
		t.Fatalf("expected 20 items, got %d", len(body.Items))
	}
	if body.Pagination.Total != 45 || body.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected pagination: %+v", body.Pagination)
	}
}

func TestListProductsDefaults(t *testing.T) {
	lister := &stubLister{products: []Product{{ID: 1}, {ID: 2}}}
	handler := NewHandler(nil, lister)

	router := chi.NewRouter()
	router.Route("/products", handler.MountProducts)

	req := httptest.NewRequest(http.MethodGet, "/products/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if lister.lastLimit != 20 || lister.lastOff != 0 {
		t.Fatalf("expected default limit 20 offset 0, got %d/%d", lister.lastLimit, lister.lastOff)
	}
}
