package billing

import (
	"github.com/tallyhq/tally/internal/clock"
	"github.com/tallyhq/tally/internal/models"
)

// Engine evaluates subscriptions against an injected clock. All methods are
// pure apart from reading the clock; the Engine is safe for concurrent use.
type Engine struct {
	clock clock.Clock
}

// NewEngine builds an engine on the given clock.
func NewEngine(clk clock.Clock) *Engine {
	return &Engine{clock: clk}
}

// NextRenewal returns the subscription's next renewal strictly after now,
// or the zero Date when the subscription has ended.
func (e *Engine) NextRenewal(sub *models.Subscription) (models.Date, error) {
	return RenewalDateAfter(sub, e.clock.Now())
}

// RenewalsPassed counts completed cycles up to to (or up to tomorrow when to
// is zero).
func (e *Engine) RenewalsPassed(sub *models.Subscription, to models.Date) (int, error) {
	return RenewalsPassed(sub, e.clock.Now(), to)
}

// ReminderDate returns the subscription's next applicable reminder date, or
// the zero Date when none applies.
func (e *Engine) ReminderDate(sub *models.Subscription) (models.Date, error) {
	return ReminderDate(sub, e.clock.Now())
}

// ReminderDue reports whether a reminder scheduled for the given date should
// fire now in the user's timezone.
func (e *Engine) ReminderDue(reminder models.Date, timezone string) (bool, error) {
	return IsReminderDue(reminder, timezone, e.clock.Now())
}

// UserSpend sums what the user owes across the subscriptions for all
// renewals within [from, to]. Subscriptions where the user has no
// contribution, or owes nothing, are skipped.
func (e *Engine) UserSpend(userID string, subs []*models.Subscription, from, to models.Date) (int64, error) {
	var total int64
	for _, sub := range subs {
		owed, ok := owedBy(sub, userID)
		if !ok || owed == 0 {
			continue
		}
		renewals, err := RenewalsInRange(sub, from, to)
		if err != nil {
			return 0, err
		}
		total += owed * int64(renewals)
	}
	return total, nil
}

// SpendSummary is the aggregate spend over a set of subscriptions.
type SpendSummary struct {
	// Total is the summed per-cycle amount times renewals, in minor units.
	Total int64

	// RenewingIDs lists subscriptions that renewed at least once in range.
	RenewingIDs []string
}

// SubsTotalSpend sums renewals * amount per subscription over [from, to] and
// collects the ids of subscriptions that renewed in that window.
func (e *Engine) SubsTotalSpend(subs []*models.Subscription, from, to models.Date) (SpendSummary, error) {
	var summary SpendSummary
	for _, sub := range subs {
		renewals, err := RenewalsInRange(sub, from, to)
		if err != nil {
			return SpendSummary{}, err
		}
		if renewals == 0 {
			continue
		}
		summary.Total += int64(renewals) * sub.Amount
		summary.RenewingIDs = append(summary.RenewingIDs, sub.ID)
	}
	return summary, nil
}

// Balances returns the caller's balance transfers for one subscription over
// all cycles passed so far. See Transfers for the transfer rules.
func (e *Engine) Balances(sub *models.Subscription, callerID string) ([]models.UserBalance, error) {
	cycles, err := e.RenewalsPassed(sub, models.Date{})
	if err != nil {
		return nil, err
	}
	return Transfers(sub, callerID, cycles), nil
}

// Transfers derives the caller's balance entries from one subscription given
// a cycle count.
//
// When the caller is not the payer they owe the payer their own share per
// cycle (a negative amount toward the payer). When the caller is the payer,
// every other assigned participant owes them their share per cycle.
// Subscriptions with fewer than two assigned participants transfer nothing.
func Transfers(sub *models.Subscription, callerID string, cycles int) []models.UserBalance {
	var assigned []models.Contribution
	for _, c := range sub.Contributions {
		if c.Participant.Assigned() {
			assigned = append(assigned, c)
		}
	}
	if len(assigned) < 2 {
		return nil
	}

	var payerID string
	for _, c := range assigned {
		if c.AmountPaid > 0 {
			payerID, _ = c.Participant.UserID()
			break
		}
	}
	if payerID == "" {
		return nil
	}

	if callerID != payerID {
		owed, ok := owedBy(sub, callerID)
		if !ok {
			return nil
		}
		return []models.UserBalance{{
			UserID:       payerID,
			Amount:       -owed * int64(cycles),
			CurrencyCode: sub.CurrencyCode,
		}}
	}

	var balances []models.UserBalance
	for _, c := range assigned {
		uid, _ := c.Participant.UserID()
		if uid == callerID {
			continue
		}
		balances = append(balances, models.UserBalance{
			UserID:       uid,
			Amount:       c.AmountOwed * int64(cycles),
			CurrencyCode: sub.CurrencyCode,
		})
	}
	return balances
}

// owedBy returns the user's owed amount in the subscription's contributions.
func owedBy(sub *models.Subscription, userID string) (int64, bool) {
	for _, c := range sub.Contributions {
		if uid, ok := c.Participant.UserID(); ok && uid == userID {
			return c.AmountOwed, true
		}
	}
	return 0, false
}
