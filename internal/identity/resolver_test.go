package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/access"
)

type stubStore struct {
	profile *Profile
	err     error
	delay   time.Duration
}

func (s *stubStore) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

func TestResolveMapsStoredProfile(t *testing.T) {
	store := &stubStore{profile: &Profile{ID: "u1", Email: "ops@example.com", Name: "Ops Lead", Role: "production"}}
	resolver := NewResolver(store, nil, 0)

	p := resolver.Resolve(context.Background(), "u1", "ops@example.com")
	require.Equal(t, "u1", p.ID)
	require.Equal(t, "Ops Lead", p.Name)
	require.Equal(t, access.RoleProduction, p.Role)
}

func TestResolveCoercesUnknownRole(t *testing.T) {
	store := &stubStore{profile: &Profile{ID: "u1", Email: "a@b.com", Name: "A", Role: "superuser"}}
	resolver := NewResolver(store, nil, 0)

	p := resolver.Resolve(context.Background(), "u1", "a@b.com")
	require.Equal(t, access.RoleClient, p.Role)
}

func TestResolveStoreErrorFallsBack(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	resolver := NewResolver(store, nil, 0)

	p := resolver.Resolve(context.Background(), "u1", "a@b.com")
	require.Equal(t, access.RoleClient, p.Role)
	require.Equal(t, "a@b.com", p.Email)
	require.Equal(t, "u1", p.ID)
	require.NotEmpty(t, p.Name)
}

func TestResolveTimeoutFallsBack(t *testing.T) {
	store := &stubStore{
		profile: &Profile{ID: "u1", Email: "a@b.com", Role: "super_admin"},
		delay:   200 * time.Millisecond,
	}
	resolver := NewResolver(store, nil, 20*time.Millisecond)

	p := resolver.Resolve(context.Background(), "u1", "a@b.com")
	require.Equal(t, access.RoleClient, p.Role, "a timed-out lookup must never yield an elevated role")
	require.Equal(t, "a@b.com", p.Email)
}

func TestResolveMissingEmailUsesPlaceholderName(t *testing.T) {
	store := &stubStore{err: errors.New("down")}
	resolver := NewResolver(store, nil, 0)

	p := resolver.Resolve(context.Background(), "u1", "")
	require.Equal(t, "User", p.Name)
	require.Empty(t, p.Email)
	require.Equal(t, access.RoleClient, p.Role)
}

func TestDisplayNameFromEmail(t *testing.T) {
	require.Equal(t, "Jane Doe", displayNameFromEmail("jane.doe@example.com"))
	require.Equal(t, "Ops", displayNameFromEmail("ops@example.com"))
	require.Empty(t, displayNameFromEmail("not-an-email"))
}
