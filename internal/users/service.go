package users

import (
	"context"
	"errors"
	"log/slog"

	"github.com/meridian-crm/meridian/internal/access"
	"github.com/meridian-crm/meridian/internal/auth"
	"github.com/meridian-crm/meridian/internal/shared"
)

// ErrInvalidRole indicates a role outside the declared set.
var ErrInvalidRole = errors.New("users: invalid role")

// SessionDropper invalidates a live session token.
type SessionDropper interface {
	Drop(ctx context.Context, token string) error
}

// AuditRecorder persists administrative actions.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user administration. Role changes do not retroactively
// invalidate an already-rendered view; they publish a session-change event so
// live subscribers re-resolve, and every later resolution sees the new role.
type Service struct {
	repo     RepositoryPort
	events   *auth.Events
	sessions SessionDropper
	audit    AuditRecorder
	logger   *slog.Logger
}

// NewService builds a Service instance. events, sessions and audit may be nil
// in tests that do not exercise notification.
func NewService(repo RepositoryPort, events *auth.Events, sessions SessionDropper, audit AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, events: events, sessions: sessions, audit: audit, logger: logger}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// ChangeRole assigns a new role to the user. The role must be one of the
// declared roles; this is an administrative action, not ingestion of
// untrusted data, so an invalid role is an error rather than a coercion.
func (s *Service) ChangeRole(ctx context.Context, actorID, userID string, role access.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateRole(ctx, userID, string(role)); err != nil {
		return err
	}
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "user.role_changed",
		Entity:   "user",
		EntityID: userID,
		Meta:     map[string]any{"role": string(role)},
	})
	s.notifySessions(ctx, user, auth.EventRoleChanged)
	return nil
}

// Deactivate disables the account and tears down its live sessions.
func (s *Service) Deactivate(ctx context.Context, actorID, userID string) error {
	_, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, userID, false); err != nil {
		return err
	}
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "user.deactivated",
		Entity:   "user",
		EntityID: userID,
	})

	tokens, err := s.repo.ListSessionTokens(ctx, userID)
	if err != nil {
		s.logger.Warn("list session tokens", slog.Any("error", err))
		return nil
	}
	for _, token := range tokens {
		if s.sessions != nil {
			if err := s.sessions.Drop(ctx, token); err != nil {
				s.logger.Warn("drop session", slog.String("token", token), slog.Any("error", err))
			}
		}
		if s.events != nil {
			s.events.Publish(ctx, auth.SessionEvent{Token: token, Kind: auth.EventSignedOut})
		}
	}
	return nil
}

// recordAudit writes an audit entry; failures are logged, not surfaced.
func (s *Service) recordAudit(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("record audit log", slog.Any("error", err))
	}
}

// notifySessions publishes a change event for each live session of the user.
func (s *Service) notifySessions(ctx context.Context, user *User, kind string) {
	if s.events == nil {
		return
	}
	tokens, err := s.repo.ListSessionTokens(ctx, user.ID)
	if err != nil {
		s.logger.Warn("list session tokens", slog.Any("error", err))
		return
	}
	for _, token := range tokens {
		s.events.Publish(ctx, auth.SessionEvent{
			Token:  token,
			UserID: user.ID,
			Email:  user.Email,
			Kind:   kind,
		})
	}
}

// IsNotFound reports whether err is the not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
