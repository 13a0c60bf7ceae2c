package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tallyhq/tally/internal/billing"
	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/notify"
	"github.com/tallyhq/tally/internal/reconcile"
	"github.com/tallyhq/tally/internal/storage"
)

// SubscriptionService manages recurring subscriptions and their
// contribution sets.
type SubscriptionService struct {
	store    storage.Store
	engine   *billing.Engine
	notifier notify.Notifier
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(store storage.Store, engine *billing.Engine, notifier notify.Notifier) *SubscriptionService {
	return &SubscriptionService{store: store, engine: engine, notifier: notifier}
}

// Create validates and persists a new subscription owned by the caller.
// When no contributions are given the owner becomes the sole payer owing
// the full amount; otherwise the given set is stored as-is after a split
// of the amount across any contributions with zero owed.
func (s *SubscriptionService) Create(ctx context.Context, ownerID string, sub *models.Subscription) (*models.Subscription, error) {
	slog.Info("CreateSubscription request", "owner_id", ownerID, "name", sub.Name)

	sub.OwnerID = ownerID
	if err := validateSubscription(sub); err != nil {
		return nil, err
	}

	if len(sub.Contributions) == 0 {
		sub.Contributions = []models.Contribution{{
			Participant: models.AssignedTo(ownerID),
			AmountPaid:  sub.Amount,
			AmountOwed:  sub.Amount,
		}}
	} else if err := autoSplit(sub); err != nil {
		return nil, err
	}

	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		slog.Error("CreateSubscription failed", "error", err)
		return nil, err
	}

	slog.Info("Subscription created", "subscription_id", sub.ID)
	return sub, nil
}

// Get retrieves a subscription the caller owns or participates in.
func (s *SubscriptionService) Get(ctx context.Context, callerID, id string) (*models.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(sub, callerID) {
		return nil, fmt.Errorf("subscription %s: %w", id, ErrForbidden)
	}
	return sub, nil
}

// List retrieves every subscription the caller owns or contributes to.
func (s *SubscriptionService) List(ctx context.Context, callerID string) ([]*models.Subscription, error) {
	return s.store.ListSubscriptionsByUser(ctx, callerID)
}

// Update replaces the subscription's fields and reconciles its proposed
// contribution set against the stored one. Only the owner may update.
// Membership and amount changes are delivered to affected participants.
func (s *SubscriptionService) Update(ctx context.Context, callerID string, sub *models.Subscription) (*models.Subscription, error) {
	slog.Info("UpdateSubscription request", "subscription_id", sub.ID, "caller_id", callerID)

	old, err := s.store.GetSubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	if old.OwnerID != callerID {
		return nil, fmt.Errorf("subscription %s: %w", sub.ID, ErrForbidden)
	}

	sub.OwnerID = old.OwnerID
	if err := validateSubscription(sub); err != nil {
		return nil, err
	}

	cs := reconcile.Resolve(old.Contributions, sub.Contributions, s.firstJoin(ctx))
	if err := s.applyChangeset(ctx, old, cs); err != nil {
		return nil, err
	}

	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		slog.Error("UpdateSubscription failed", "subscription_id", sub.ID, "error", err)
		return nil, err
	}

	slog.Info("Subscription updated", "subscription_id", sub.ID, "events", len(cs.Events))
	return s.store.GetSubscription(ctx, sub.ID)
}

// Delete removes a subscription. Only the owner may delete.
func (s *SubscriptionService) Delete(ctx context.Context, callerID, id string) error {
	sub, err := s.store.GetSubscription(ctx, id)
	if err != nil {
		return err
	}
	if sub.OwnerID != callerID {
		return fmt.Errorf("subscription %s: %w", id, ErrForbidden)
	}

	if err := s.store.DeleteSubscription(ctx, id); err != nil {
		return err
	}
	slog.Info("Subscription deleted", "subscription_id", id)
	return nil
}

// Join adds the caller to a subscription, claiming the open slot with the
// given contribution id when one is named, and rebalances shares.
func (s *SubscriptionService) Join(ctx context.Context, callerID, subID, contribID string) (*models.Subscription, error) {
	slog.Info("JoinSubscription request", "subscription_id", subID, "user_id", callerID)

	sub, err := s.store.GetSubscription(ctx, subID)
	if err != nil {
		return nil, err
	}

	cs, err := reconcile.Join(sub.Contributions, contribID, callerID, sub.Amount, s.firstJoin(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.applyChangeset(ctx, sub, cs); err != nil {
		return nil, err
	}
	return s.store.GetSubscription(ctx, subID)
}

// Leave removes the caller from a subscription and redistributes their
// share. The payer cannot leave; the subscription has to be deleted or
// handed over instead.
func (s *SubscriptionService) Leave(ctx context.Context, callerID, subID string) (*models.Subscription, error) {
	slog.Info("LeaveSubscription request", "subscription_id", subID, "user_id", callerID)

	sub, err := s.store.GetSubscription(ctx, subID)
	if err != nil {
		return nil, err
	}

	cs, err := reconcile.Leave(sub.Contributions, callerID)
	if err != nil {
		return nil, err
	}
	if err := s.applyChangeset(ctx, sub, cs); err != nil {
		return nil, err
	}
	return s.store.GetSubscription(ctx, subID)
}

// ConfirmContribution marks the caller's contribution as confirmed for the
// current cycle. Confirmation is terminal.
func (s *SubscriptionService) ConfirmContribution(ctx context.Context, callerID, subID string) error {
	sub, err := s.store.GetSubscription(ctx, subID)
	if err != nil {
		return err
	}
	for _, c := range sub.Contributions {
		if uid, ok := c.Participant.UserID(); ok && uid == callerID {
			return s.store.SetContributionStatus(ctx, c.ID, models.StatusConfirmed)
		}
	}
	return fmt.Errorf("subscription %s: %w", subID, ErrForbidden)
}

// NextRenewal returns the subscription's next renewal date, or the zero
// date when it has ended.
func (s *SubscriptionService) NextRenewal(ctx context.Context, callerID, subID string) (models.Date, error) {
	sub, err := s.Get(ctx, callerID, subID)
	if err != nil {
		return models.Date{}, err
	}
	return s.engine.NextRenewal(sub)
}

// Spend sums the caller's share of renewals across all their subscriptions
// in the given date range.
func (s *SubscriptionService) Spend(ctx context.Context, callerID string, from, to models.Date) (int64, error) {
	subs, err := s.store.ListSubscriptionsByUser(ctx, callerID)
	if err != nil {
		return 0, err
	}
	return s.engine.UserSpend(callerID, subs, from, to)
}

// TotalSpend sums full subscription amounts across the caller's
// subscriptions in the given range and reports which ones renew in it.
func (s *SubscriptionService) TotalSpend(ctx context.Context, callerID string, from, to models.Date) (billing.SpendSummary, error) {
	subs, err := s.store.ListSubscriptionsByUser(ctx, callerID)
	if err != nil {
		return billing.SpendSummary{}, err
	}
	return s.engine.SubsTotalSpend(subs, from, to)
}

// applyChangeset persists the changeset and fans its events out to the
// affected users. Notification failures are logged, not returned; the
// write has already happened.
func (s *SubscriptionService) applyChangeset(ctx context.Context, sub *models.Subscription, cs models.Changeset) error {
	if cs.Empty() {
		return nil
	}
	if err := s.store.ApplyContributionChanges(ctx, storage.OwnerSubscription, sub.ID, cs); err != nil {
		slog.Error("ApplyContributionChanges failed", "subscription_id", sub.ID, "error", err)
		return err
	}

	for _, ev := range cs.Events {
		user, err := s.store.GetUserByID(ctx, ev.UserID)
		if err != nil {
			slog.Warn("Skipping notification for unknown user", "user_id", ev.UserID)
			continue
		}
		if err := s.notifier.SendEvent(ctx, user, sub, ev); err != nil {
			slog.Warn("Event notification failed",
				"subscription_id", sub.ID, "user_id", ev.UserID, "error", err)
		}
	}
	return nil
}

// firstJoin reports whether a user has never contributed to anything.
// Lookup failures err on the side of "seen before" so a flaky store cannot
// produce spurious first-join flags.
func (s *SubscriptionService) firstJoin(ctx context.Context) reconcile.FirstJoinFunc {
	return func(userID string) bool {
		seen, err := s.store.HasParticipated(ctx, userID)
		if err != nil {
			slog.Warn("HasParticipated lookup failed", "user_id", userID, "error", err)
			return false
		}
		return !seen
	}
}

func validateSubscription(sub *models.Subscription) error {
	if sub.Name == "" {
		return fmt.Errorf("%w: name required", models.ErrInvalidArgument)
	}
	if sub.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", models.ErrInvalidArgument)
	}
	if sub.CurrencyCode == "" {
		return fmt.Errorf("%w: currency code required", models.ErrInvalidArgument)
	}
	if err := sub.Cycle.Validate(); err != nil {
		return err
	}
	if sub.StartDate.IsZero() {
		return fmt.Errorf("%w: start date required", models.ErrInvalidArgument)
	}
	if sub.Ends() && !sub.EndDate.After(sub.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", models.ErrInvalidArgument)
	}
	return nil
}

// autoSplit distributes the subscription amount across contributions that
// owe nothing yet, holding manual amounts fixed.
func autoSplit(sub *models.Subscription) error {
	var open []int
	var fixed int64
	for i, c := range sub.Contributions {
		if c.ManualAmountOwed || c.AmountOwed != 0 {
			fixed += c.AmountOwed
			continue
		}
		open = append(open, i)
	}
	if len(open) == 0 {
		return nil
	}

	shares, err := calculator.Split(sub.Amount-fixed, len(open))
	if err != nil {
		return err
	}
	for i, idx := range open {
		sub.Contributions[idx].AmountOwed = shares[i]
	}
	return nil
}
