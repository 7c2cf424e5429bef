package catalog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListProducts returns a page of products ordered by SKU.
func (r *Repository) ListProducts(ctx context.Context, limit, offset int) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, sku, name, unit_price, created_at FROM products ORDER BY sku LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.UnitPrice, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// CountProducts returns the product row count.
func (r *Repository) CountProducts(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total)
	return total, err
}

// ListSuppliers returns a page of suppliers ordered by name.
func (r *Repository) ListSuppliers(ctx context.Context, limit, offset int) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, created_at FROM suppliers ORDER BY name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var suppliers []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.CreatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

// CountSuppliers returns the supplier row count.
func (r *Repository) CountSuppliers(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM suppliers`).Scan(&total)
	return total, err
}

// ListStockLevels returns a page of on-hand quantities per product.
func (r *Repository) ListStockLevels(ctx context.Context, limit, offset int) ([]StockLevel, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.sku, p.name, COALESCE(s.quantity, 0)
		 FROM products p LEFT JOIN stock_levels s ON s.product_id = p.id
		 ORDER BY p.sku LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var levels []StockLevel
	for rows.Next() {
		var l StockLevel
		if err := rows.Scan(&l.ProductID, &l.SKU, &l.Name, &l.Quantity); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// CountStockLevels returns the number of stocked product rows.
func (r *Repository) CountStockLevels(ctx context.Context) (int, error) {
	return r.CountProducts(ctx)
}
