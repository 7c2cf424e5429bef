package identity

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/meridian-crm/meridian/internal/access"
)

// DefaultResolveTimeout bounds a single profile-store round trip.
const DefaultResolveTimeout = 10 * time.Second

// ProfileStore loads a profile by user ID in a single round trip.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}

// Resolver turns a session identity into a Principal. Resolution degrades
// rather than fails: a profile-store outage yields a least-privileged
// principal built from the session identity, never an error and never an
// elevated role.
type Resolver struct {
	store   ProfileStore
	logger  *slog.Logger
	timeout time.Duration
}

// NewResolver constructs a Resolver. A zero timeout selects
// DefaultResolveTimeout.
func NewResolver(store ProfileStore, logger *slog.Logger, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger, timeout: timeout}
}

// Resolve produces the Principal for the given session identity. userID and
// email come from the already-established session; the profile store supplies
// the display name and role. Failure, timeout, or a missing profile falls
// back to a client-role principal so a transient outage under-privileges the
// user instead of locking them out.
func (r *Resolver) Resolve(ctx context.Context, userID, email string) Principal {
	if r.store != nil {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		profile, err := r.store.GetProfile(ctx, userID)
		if err == nil && profile != nil {
			return Principal{
				ID:    profile.ID,
				Name:  firstNonEmpty(profile.Name, displayNameFromEmail(profile.Email), "User"),
				Email: firstNonEmpty(profile.Email, email),
				Role:  access.ParseRole(profile.Role),
			}
		}
		if err != nil {
			r.logger.Warn("profile resolution failed, falling back to least privilege",
				slog.String("user_id", userID), slog.Any("error", err))
		}
	}
	return fallbackPrincipal(userID, email)
}

// fallbackPrincipal builds the degraded principal used when the profile
// store cannot answer.
func fallbackPrincipal(userID, email string) Principal {
	return Principal{
		ID:    userID,
		Name:  firstNonEmpty(displayNameFromEmail(email), "User"),
		Email: email,
		Role:  access.RoleClient,
	}
}

// displayNameFromEmail derives a best-effort display name from the local
// part of an email address: "jane.doe@x.com" becomes "Jane Doe".
func displayNameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return ""
	}
	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
