// Package notify delivers renewal reminders and membership change
// notifications to users.
package notify

import (
	"context"

	"github.com/tallyhq/tally/internal/models"
)

// Notifier delivers messages to a single user. Implementations decide the
// channel; users without a configured channel are skipped silently.
type Notifier interface {
	// SendReminder tells the user a renewal is coming up and how much
	// their share is.
	SendReminder(ctx context.Context, user *models.User, sub *models.Subscription, renewal models.Date, owed int64) error

	// SendEvent tells the user about a membership or amount change on a
	// subscription they participate in.
	SendEvent(ctx context.Context, user *models.User, sub *models.Subscription, event models.Event) error
}

// Noop discards all notifications. Used when no channel is configured.
type Noop struct{}

func (Noop) SendReminder(context.Context, *models.User, *models.Subscription, models.Date, int64) error {
	return nil
}

func (Noop) SendEvent(context.Context, *models.User, *models.Subscription, models.Event) error {
	return nil
}
