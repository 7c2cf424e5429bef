package auth

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// eventsChannel is the Redis pub/sub channel carrying session-change events.
const eventsChannel = "auth:events"

// Event kinds.
const (
	EventSignedIn    = "signed_in"
	EventSignedOut   = "signed_out"
	EventRoleChanged = "role_changed"
)

// SessionEvent notifies observers that the session named by Token changed.
// Every login, logout, and role change publishes one; live subscribers
// re-resolve their principal in response.
type SessionEvent struct {
	Token  string `json:"token"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Kind   string `json:"kind"`
}

// Events is the session-change event bus, backed by Redis pub/sub so that
// every instance of the application observes changes made by any other.
type Events struct {
	client *redis.Client
	logger *slog.Logger
}

// NewEvents constructs an Events bus.
func NewEvents(client *redis.Client, logger *slog.Logger) *Events {
	if logger == nil {
		logger = slog.Default()
	}
	return &Events{client: client, logger: logger}
}

// Publish broadcasts a session-change event. Failures are logged, not
// propagated: a lost notification degrades liveness of subscribers, never
// correctness, since every request re-reads the session store.
func (e *Events) Publish(ctx context.Context, evt SessionEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		e.logger.Error("marshal session event", slog.Any("error", err))
		return
	}
	if err := e.client.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		e.logger.Warn("publish session event", slog.Any("error", err))
	}
}

// Subscribe delivers events for the given session token until the returned
// function is called. Delivery order follows publish order.
func (e *Events) Subscribe(ctx context.Context, token string, fn func(SessionEvent)) func() {
	pubsub := e.client.Subscribe(ctx, eventsChannel)
	go func() {
		for msg := range pubsub.Channel() {
			var evt SessionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				e.logger.Warn("decode session event", slog.Any("error", err))
				continue
			}
			if evt.Token == token {
				fn(evt)
			}
		}
	}()
	return func() {
		_ = pubsub.Close()
	}
}
