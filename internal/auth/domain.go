package auth

import "time"

// User represents an authenticated user account. The profile record carries
// the display name and role; the account carries only credentials.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
