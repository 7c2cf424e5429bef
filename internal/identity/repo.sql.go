package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Repository provides PostgreSQL backed profile lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile fetches the profile for a user by primary key.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var profile Profile
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, email, name, role FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&profile.ID, &profile.Email, &profile.Name, &profile.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

var _ ProfileStore = (*Repository)(nil)
