package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Queue names.
const (
	QueueDefault = "default"
)

// Task types.
const (
	TaskSessionSweep     = "session:sweep"
	TaskSendWelcomeEmail = "email:welcome"
)

// SessionSweeper deletes expired session audit rows.
type SessionSweeper interface {
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// WelcomeEmailPayload carries the data for a welcome email task.
type WelcomeEmailPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewSessionSweepTask builds the periodic session-sweep task.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil)
}

// NewWelcomeEmailTask builds a welcome-email task.
func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendWelcomeEmail, data), nil
}

// NewSessionSweepHandler returns the handler deleting expired session rows.
func NewSessionSweepHandler(sweeper SessionSweeper, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		removed, err := sweeper.DeleteExpiredSessions(ctx, time.Now())
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("session sweep", slog.Int64("removed", removed))
		}
		return nil
	}
}

// NewWelcomeEmailHandler returns the handler delivering welcome emails.
// Delivery is log-only outside production; the SMTP relay is wired through
// configuration when available.
func NewWelcomeEmailHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload WelcomeEmailPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return err
		}
		if logger != nil {
			logger.Info("welcome email",
				slog.String("email", payload.Email),
				slog.String("name", payload.Name))
		}
		return nil
	}
}
