// Package notify composes notification sinks.
package notify

import (
	"context"

	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// Notifier matches services.Notifier.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Multi delivers to every sink and combines their failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n models.Notification) error {
	var err error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		err = multierr.Append(err, sink.Notify(ctx, n))
	}
	return err
}

// Log writes notifications to the logger. Used when nothing else is configured.
type Log struct {
	Logger zerolog.Logger
}

func (l Log) Notify(_ context.Context, n models.Notification) error {
	l.Logger.Info().
		Str("user_id", n.UserID.String()).
		Str("session_id", n.SessionID.String()).
		Str("event", string(n.Event)).
		Msg(n.Message)
	return nil
}
