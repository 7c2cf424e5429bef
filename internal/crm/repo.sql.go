package crm

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

// ListClients returns all clients ordered by name.
func (r *Repository) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, phone, created_at FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// ListProjects returns all projects, newest first.
func (r *Repository) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, client_id, name, status, created_at FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListOrders returns all orders, newest first.
func (r *Repository) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, client_id, reference, status, total, created_at FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.ClientID, &o.Reference, &o.Status, &o.Total, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListOrdersForEmail returns orders belonging to the client account matching
// the given email, for the self-service portal.
func (r *Repository) ListOrdersForEmail(ctx context.Context, email string) ([]Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.client_id, o.reference, o.status, o.total, o.created_at
		 FROM orders o JOIN clients c ON c.id = o.client_id
		 WHERE c.email = $1 ORDER BY o.created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.ClientID, &o.Reference, &o.Status, &o.Total, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Counts returns simple record counts for the dashboard summary.
func (r *Repository) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, 3)
	for _, q := range []struct {
		key   string
		query string
	}{
		{"clients", `SELECT COUNT(*) FROM clients`},
		{"projects", `SELECT COUNT(*) FROM projects`},
		{"orders", `SELECT COUNT(*) FROM orders`},
	} {
		var n int64
		if err := r.pool.QueryRow(ctx, q.query).Scan(&n); err != nil {
			return nil, err
		}
		counts[q.key] = n
	}
	return counts, nil
}
