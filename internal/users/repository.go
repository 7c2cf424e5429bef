package users

import "context"

// RepositoryPort defines data access methods for user administration.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateRole(ctx context.Context, id, role string) error
	SetActive(ctx context.Context, id string, active bool) error

	// ListSessionTokens returns the live session tokens recorded for a user,
	// so role changes and deactivations can reach active sessions.
	ListSessionTokens(ctx context.Context, userID string) ([]string, error)
}
