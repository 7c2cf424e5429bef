package identity

import "github.com/meridian-crm/meridian/internal/access"

// Principal is the resolved identity of the current actor. Exactly one
// principal is active per session, or none when unauthenticated. A principal
// is replaced, never mutated; role changes take effect on the next
// resolution.
type Principal struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  access.Role `json:"role"`
}

// Profile is the raw profile record as stored. The role field is an
// untrusted string until it has been through access.ParseRole.
type Profile struct {
	ID    string
	Email string
	Name  string
	Role  string
}
