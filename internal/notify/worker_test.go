package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tallyhq/tally/internal/billing"
	"github.com/tallyhq/tally/internal/clock"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage/sqlite"
)

type recordingNotifier struct {
	reminders []string // subscription ids
	fail      bool
}

func (r *recordingNotifier) SendReminder(_ context.Context, _ *models.User, sub *models.Subscription, _ models.Date, _ int64) error {
	if r.fail {
		return errors.New("delivery failed")
	}
	r.reminders = append(r.reminders, sub.ID)
	return nil
}

func (r *recordingNotifier) SendEvent(context.Context, *models.User, *models.Subscription, models.Event) error {
	return nil
}

func setupWorker(t *testing.T, notifier Notifier) (*ReminderWorker, *sqlite.Store, *models.User) {
	t.Helper()

	store, err := sqlite.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	// 2023-04-07 14:00 UTC: past the 12:59 cutoff on the reminder day for
	// a subscription renewing Apr 10 with a 3 day lead.
	clk := clock.At(time.Date(2023, time.April, 7, 14, 0, 0, 0, time.UTC))
	engine := billing.NewEngine(clk)

	user := models.NewUser("alice@example.com", "Alice", "hash")
	user.TelegramChatID = 42
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return NewReminderWorker(store, engine, notifier), store, user
}

func createSub(t *testing.T, store *sqlite.Store, user *models.User, lead models.ReminderLead) *models.Subscription {
	t.Helper()
	sub := &models.Subscription{
		Name:         "Streaming",
		OwnerID:      user.ID,
		StartDate:    models.NewDate(2023, time.April, 10),
		Cycle:        models.Cycle{Unit: models.UnitMonth, Value: 1},
		Amount:       1500,
		CurrencyCode: "EUR",
		ReminderLead: lead,
		Contributions: []models.Contribution{
			{Participant: models.AssignedTo(user.ID), AmountPaid: 1500, AmountOwed: 1500},
		},
	}
	if err := store.CreateSubscription(context.Background(), sub); err != nil {
		t.Fatalf("failed to create subscription: %v", err)
	}
	return sub
}

func TestSweepSendsDueReminder(t *testing.T) {
	notifier := &recordingNotifier{}
	worker, store, user := setupWorker(t, notifier)
	sub := createSub(t, store, user, models.LeadThreeDays)

	if err := worker.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if len(notifier.reminders) != 1 || notifier.reminders[0] != sub.ID {
		t.Errorf("expected one reminder for %s, got %v", sub.ID, notifier.reminders)
	}
}

func TestSweepSkipsNotDue(t *testing.T) {
	notifier := &recordingNotifier{}
	worker, store, user := setupWorker(t, notifier)
	// One day lead: the reminder day is Apr 9, not today.
	createSub(t, store, user, models.LeadOneDay)

	if err := worker.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if len(notifier.reminders) != 0 {
		t.Errorf("expected no reminders, got %v", notifier.reminders)
	}
}

func TestSweepSkipsConfirmed(t *testing.T) {
	notifier := &recordingNotifier{}
	worker, store, user := setupWorker(t, notifier)
	sub := createSub(t, store, user, models.LeadThreeDays)

	ctx := context.Background()
	if err := store.SetContributionStatus(ctx, sub.Contributions[0].ID, models.StatusConfirmed); err != nil {
		t.Fatalf("SetContributionStatus failed: %v", err)
	}

	if err := worker.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if len(notifier.reminders) != 0 {
		t.Errorf("expected no reminders for confirmed contribution, got %v", notifier.reminders)
	}
}

func TestSweepMarksFailedDelivery(t *testing.T) {
	notifier := &recordingNotifier{fail: true}
	worker, store, user := setupWorker(t, notifier)
	sub := createSub(t, store, user, models.LeadThreeDays)

	ctx := context.Background()
	if err := worker.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	got, err := store.GetSubscription(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetSubscription failed: %v", err)
	}
	if got.Contributions[0].Status != models.StatusNotDelivered {
		t.Errorf("expected status NOT_DELIVERED, got %s", got.Contributions[0].Status)
	}
}
