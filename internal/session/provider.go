package session

import (
	"context"

	"github.com/meridian-crm/meridian/internal/access"
	"github.com/meridian-crm/meridian/internal/identity"
)

// Identity is the raw identity attached to an established session, before
// profile resolution. It carries only what the credential provider knows.
type Identity struct {
	Token  string
	UserID string
	Email  string
}

// CredentialProvider is the external contract for credential verification
// and session establishment. SignIn does not return the principal; the
// provider emits a session-change event which drives resolution.
type CredentialProvider interface {
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password, name string, role access.Role) error
	SignOut(ctx context.Context) error

	// GetSession returns the currently established identity, or nil when
	// anonymous.
	GetSession(ctx context.Context) (*Identity, error)

	// OnSessionChange registers a callback fired with the new identity (or
	// nil) on every login, logout, and token-refresh event. The returned
	// function unsubscribes.
	OnSessionChange(ctx context.Context, fn func(*Identity)) (func(), error)
}

// PrincipalResolver resolves a session identity into a Principal. Resolution
// never fails; it degrades to a least-privileged principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, userID, email string) identity.Principal
}
