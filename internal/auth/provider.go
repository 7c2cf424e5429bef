package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/meridian-crm/meridian/internal/access"
	"github.com/meridian-crm/meridian/internal/session"
	"github.com/meridian-crm/meridian/internal/shared"
)

// Provider adapts the auth service, session store, and event bus into the
// credential-provider contract for one session token. The session lifecycle
// manager consumes it without knowing about Redis or PostgreSQL.
type Provider struct {
	service  *Service
	sessions *shared.SessionManager
	events   *Events
	token    string
	logger   *slog.Logger
}

// NewProvider binds a Provider to a session token.
func NewProvider(service *Service, sessions *shared.SessionManager, events *Events, token string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		service:  service,
		sessions: sessions,
		events:   events,
		token:    token,
		logger:   logger,
	}
}

// SignIn verifies credentials and associates the session with the account.
// The principal is not set here; the published change event drives
// resolution.
func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	user, err := p.service.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}

	sess, err := p.sessions.Get(ctx, p.token)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		sess = p.sessions.NewSession(p.token)
	}
	sess.SetUser(user.ID)
	sess.Set(shared.SessionEmailKey, user.Email)
	if err := p.sessions.Save(ctx, sess); err != nil {
		return err
	}

	expiresAt := time.Now().Add(p.sessions.TTL())
	if err := p.service.RegisterSession(ctx, p.token, user.ID, expiresAt, "", ""); err != nil {
		p.logger.Warn("register session", slog.Any("error", err))
	}

	p.events.Publish(ctx, SessionEvent{
		Token:  p.token,
		UserID: user.ID,
		Email:  user.Email,
		Kind:   EventSignedIn,
	})
	return nil
}

// SignUp creates a new account with the given role. It does not
// authenticate; the caller signs in explicitly afterwards.
func (p *Provider) SignUp(ctx context.Context, email, password, name string, role access.Role) error {
	_, err := p.service.Register(ctx, email, password, name, role)
	return err
}

// SignOut invalidates the session and broadcasts the change.
func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.service.RemoveSession(ctx, p.token); err != nil {
		p.logger.Warn("remove session", slog.Any("error", err))
	}
	if err := p.sessions.Drop(ctx, p.token); err != nil {
		return err
	}
	p.events.Publish(ctx, SessionEvent{Token: p.token, Kind: EventSignedOut})
	return nil
}

// GetSession returns the identity attached to the bound token, or nil when
// the token is unknown or anonymous.
func (p *Provider) GetSession(ctx context.Context) (*session.Identity, error) {
	sess, err := p.sessions.Get(ctx, p.token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if sess.User() == "" {
		return nil, nil
	}
	return &session.Identity{
		Token:  p.token,
		UserID: sess.User(),
		Email:  sess.Get(shared.SessionEmailKey),
	}, nil
}

// OnSessionChange subscribes to change events for the bound token.
func (p *Provider) OnSessionChange(ctx context.Context, fn func(*session.Identity)) (func(), error) {
	unsubscribe := p.events.Subscribe(ctx, p.token, func(evt SessionEvent) {
		if evt.Kind == EventSignedOut {
			fn(nil)
			return
		}
		fn(&session.Identity{Token: evt.Token, UserID: evt.UserID, Email: evt.Email})
	})
	return unsubscribe, nil
}

var _ session.CredentialProvider = (*Provider)(nil)
