package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/tallyhq/tally/internal/billing"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// ReminderWorker walks active subscriptions on a schedule and dispatches
// renewal reminders once the owner's local clock passes the cutoff.
type ReminderWorker struct {
	store    storage.Store
	engine   *billing.Engine
	notifier Notifier
	cron     *cron.Cron
}

func NewReminderWorker(store storage.Store, engine *billing.Engine, notifier Notifier) *ReminderWorker {
	return &ReminderWorker{
		store:    store,
		engine:   engine,
		notifier: notifier,
		cron:     cron.New(),
	}
}

// Start schedules the reminder sweep. Reminders are due at a fixed local
// hour, so the sweep runs hourly to catch every timezone's cutoff within
// the hour it passes.
func (w *ReminderWorker) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc("0 * * * *", func() {
		if err := w.Sweep(ctx); err != nil {
			slog.Error("Reminder sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}
	w.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (w *ReminderWorker) Stop() {
	<-w.cron.Stop().Done()
}

// Sweep evaluates every subscription of every user with a notification
// channel and sends reminders that are due. Send failures mark the
// contribution NOT_DELIVERED so the next sweep retries it; confirmed
// contributions are left alone.
func (w *ReminderWorker) Sweep(ctx context.Context) error {
	users, err := w.store.ListUsersWithNotifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var swept, sent int
	for _, user := range users {
		subs, err := w.store.ListSubscriptionsByUser(ctx, user.ID)
		if err != nil {
			slog.Error("Failed to list subscriptions", "user_id", user.ID, "error", err)
			continue
		}
		for _, sub := range subs {
			swept++
			n, err := w.sweepSubscription(ctx, user, sub)
			if err != nil {
				slog.Error("Failed to sweep subscription",
					"subscription_id", sub.ID, "user_id", user.ID, "error", err)
				continue
			}
			sent += n
		}
	}

	slog.Info("Reminder sweep done", "subscriptions", swept, "reminders_sent", sent)
	return nil
}

func (w *ReminderWorker) sweepSubscription(ctx context.Context, user *models.User, sub *models.Subscription) (int, error) {
	reminder, err := w.engine.ReminderDate(sub)
	if err != nil {
		return 0, err
	}
	if reminder.IsZero() {
		return 0, nil
	}

	due, err := w.engine.ReminderDue(reminder, user.Timezone)
	if err != nil {
		return 0, err
	}
	if !due {
		return 0, nil
	}

	renewal, err := w.engine.NextRenewal(sub)
	if err != nil {
		return 0, err
	}

	contrib, ok := contributionOf(sub, user.ID)
	if !ok || contrib.Status == models.StatusConfirmed {
		return 0, nil
	}

	if err := w.notifier.SendReminder(ctx, user, sub, renewal, contrib.AmountOwed); err != nil {
		slog.Warn("Reminder delivery failed",
			"subscription_id", sub.ID, "user_id", user.ID, "error", err)
		if serr := w.store.SetContributionStatus(ctx, contrib.ID, models.StatusNotDelivered); serr != nil && !errors.Is(serr, storage.ErrNotFound) {
			return 0, serr
		}
		return 0, nil
	}
	return 1, nil
}

func contributionOf(sub *models.Subscription, userID string) (models.Contribution, bool) {
	for _, c := range sub.Contributions {
		if uid, ok := c.Participant.UserID(); ok && uid == userID {
			return c, true
		}
	}
	return models.Contribution{}, false
}
