package users

import (
	"time"

	"github.com/meridian-crm/meridian/internal/access"
)

// User is an account joined with its profile, as seen by administrators.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      access.Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
