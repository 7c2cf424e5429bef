package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/access"
	"github.com/meridian-crm/meridian/internal/auth"
	"github.com/meridian-crm/meridian/internal/shared"
)

type memoryRepo struct {
	mu       sync.Mutex
	users    map[string]User
	sessions map[string][]string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]User), sessions: make(map[string][]string)}
}

func (r *memoryRepo) ListUsers(ctx context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryRepo) GetUser(ctx context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepo) UpdateRole(ctx context.Context, id, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Role = access.Role(role)
	r.users[id] = u
	return nil
}

func (r *memoryRepo) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	r.users[id] = u
	return nil
}

func (r *memoryRepo) ListSessionTokens(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[userID], nil
}

type droppedSessions struct {
	mu     sync.Mutex
	tokens []string
}

func (d *droppedSessions) Drop(ctx context.Context, token string) error {
	d.mu.Lock()
	d.tokens = append(d.tokens, token)
	d.mu.Unlock()
	return nil
}

type memoryAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	a.logs = append(a.logs, log)
	a.mu.Unlock()
	return nil
}

func newTestEvents(t *testing.T) (*auth.Events, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return auth.NewEvents(client, nil), client
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	repo := newMemoryRepo()
	repo.users["u1"] = User{ID: "u1", Email: "a@b.com", Role: access.RoleField}
	svc := NewService(repo, nil, nil, nil, nil)

	err := svc.ChangeRole(context.Background(), "admin-1", "u1", "superuser")
	require.ErrorIs(t, err, ErrInvalidRole)
	require.Equal(t, access.RoleField, repo.users["u1"].Role)
}

func TestChangeRoleUpdatesAndNotifies(t *testing.T) {
	repo := newMemoryRepo()
	repo.users["u1"] = User{ID: "u1", Email: "a@b.com", Role: access.RoleField}
	repo.sessions["u1"] = []string{"tok-1"}

	events, _ := newTestEvents(t)
	received := make(chan auth.SessionEvent, 1)
	unsubscribe := events.Subscribe(context.Background(), "tok-1", func(evt auth.SessionEvent) {
		received <- evt
	})
	defer unsubscribe()

	audit := &memoryAudit{}
	svc := NewService(repo, events, nil, audit, nil)
	require.NoError(t, svc.ChangeRole(context.Background(), "admin-1", "u1", access.RoleCustomerService))
	require.Equal(t, access.RoleCustomerService, repo.users["u1"].Role)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "user.role_changed", audit.logs[0].Action)
	require.Equal(t, "admin-1", audit.logs[0].ActorID)
	require.Equal(t, "u1", audit.logs[0].EntityID)

	select {
	case evt := <-received:
		require.Equal(t, auth.EventRoleChanged, evt.Kind)
		require.Equal(t, "u1", evt.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a role-changed event for the live session")
	}
}

func TestChangeRoleUnknownUser(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	err := svc.ChangeRole(context.Background(), "admin-1", "ghost", access.RoleField)
	require.True(t, IsNotFound(err))
}

func TestDeactivateDropsSessions(t *testing.T) {
	repo := newMemoryRepo()
	repo.users["u1"] = User{ID: "u1", Email: "a@b.com", Role: access.RoleField, IsActive: true}
	repo.sessions["u1"] = []string{"tok-1", "tok-2"}

	events, _ := newTestEvents(t)
	dropped := &droppedSessions{}
	svc := NewService(repo, events, dropped, nil, nil)

	require.NoError(t, svc.Deactivate(context.Background(), "admin-1", "u1"))
	require.False(t, repo.users["u1"].IsActive)
	require.ElementsMatch(t, []string{"tok-1", "tok-2"}, dropped.tokens)
}
