package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/meridian-crm/meridian/internal/access"
	"github.com/meridian-crm/meridian/internal/identity"
)

// State enumerates the lifecycle states of a session.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

// Snapshot is the externally visible session state. IsLoading is true from a
// credential-change event until the principal is resolved or the fallback is
// constructed.
type Snapshot struct {
	State     State
	Principal *identity.Principal
	IsLoading bool
}

// Subscriber receives a snapshot whenever the resolved principal changes,
// including the initial resolution.
type Subscriber func(Snapshot)

// Manager owns the session lifecycle for one client session: it is the only
// writer of the principal snapshot. Credential-change events transition the
// machine back to Loading; resolution completes asynchronously under a
// generation guard so a resolution superseded by a newer event can never
// overwrite fresher state.
type Manager struct {
	provider CredentialProvider
	resolver PrincipalResolver
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	principal   *identity.Principal
	generation  uint64
	closed      bool
	subscribers map[int]Subscriber
	nextSubID   int
	unsubscribe func()
}

// NewManager constructs a Manager. Call Start to begin observing the
// credential provider.
func NewManager(provider CredentialProvider, resolver PrincipalResolver, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		provider:    provider,
		resolver:    resolver,
		logger:      logger,
		state:       StateUninitialized,
		subscribers: make(map[int]Subscriber),
	}
}

// Start subscribes to credential-change events and performs the initial
// resolution from any persisted session.
func (m *Manager) Start(ctx context.Context) error {
	unsubscribe, err := m.provider.OnSessionChange(ctx, func(ident *Identity) {
		m.handleChange(ctx, ident)
	})
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()

	ident, err := m.provider.GetSession(ctx)
	if err != nil {
		m.logger.Warn("initial session lookup failed", slog.Any("error", err))
		ident = nil
	}
	m.handleChange(ctx, ident)
	return nil
}

// SignIn delegates to the credential provider. On success the provider's
// session-change notification drives the Loading → Authenticated transition;
// SignIn itself never sets the principal.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	if err := m.provider.SignIn(ctx, email, password); err != nil {
		return wrapAuthError(err)
	}
	return nil
}

// SignUp creates a new credential and profile with the given role. It does
// not authenticate; the caller signs in explicitly afterwards.
func (m *Manager) SignUp(ctx context.Context, email, password, name string, role access.Role) error {
	if err := m.provider.SignUp(ctx, email, password, name, role); err != nil {
		return wrapAuthError(err)
	}
	return nil
}

// SignOut invalidates the session with the credential provider and moves the
// machine to Anonymous. A provider failure is logged, not propagated: the
// local session state is torn down regardless.
func (m *Manager) SignOut(ctx context.Context) {
	if err := m.provider.SignOut(ctx); err != nil {
		m.logger.Warn("sign out", slog.Any("error", err))
	}
	m.handleChange(ctx, nil)
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers a subscriber and immediately delivers the current
// snapshot. The returned function unsubscribes.
func (m *Manager) Subscribe(fn Subscriber) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	snap := m.snapshotLocked()
	m.mu.Unlock()

	fn(snap)
	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// Close tears the manager down. In-flight resolutions are discarded by the
// liveness check; no state is written after Close returns.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// handleChange processes one credential-change event: bump the generation,
// enter Loading, then resolve asynchronously. An anonymous event completes
// synchronously.
func (m *Manager) handleChange(ctx context.Context, ident *Identity) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.generation++
	gen := m.generation
	m.state = StateLoading
	subs, snap := m.publishLocked()
	m.mu.Unlock()
	notify(subs, snap)

	if ident == nil {
		m.complete(gen, nil)
		return
	}

	go func() {
		principal := m.resolver.Resolve(ctx, ident.UserID, ident.Email)
		m.complete(gen, &principal)
	}()
}

// complete installs the resolved principal unless the resolution has been
// superseded or the manager torn down.
func (m *Manager) complete(gen uint64, principal *identity.Principal) {
	m.mu.Lock()
	if m.closed || gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.principal = principal
	if principal != nil {
		m.state = StateAuthenticated
	} else {
		m.state = StateAnonymous
	}
	subs, snap := m.publishLocked()
	m.mu.Unlock()
	notify(subs, snap)
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		State:     m.state,
		Principal: m.principal,
		IsLoading: m.state == StateUninitialized || m.state == StateLoading,
	}
}

func (m *Manager) publishLocked() ([]Subscriber, Snapshot) {
	subs := make([]Subscriber, 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	return subs, m.snapshotLocked()
}

func notify(subs []Subscriber, snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
