package models

// Subscription is a recurring money event.
type Subscription struct {
	ID string

	// Name is the display name ("Netflix", "Rent").
	Name string

	// OwnerID is the user who created the subscription.
	OwnerID string

	// StartDate anchors the billing cycle. The first occurrence falls on
	// this date and every renewal is computed from it.
	StartDate Date

	// EndDate, when set, is the inclusive boundary after which no cycles are
	// counted: a renewal falling at or after it does not happen. The zero
	// Date means the subscription renews indefinitely.
	EndDate Date

	Cycle Cycle

	// Amount is the per-cycle total in minor currency units.
	Amount int64

	CurrencyCode string

	// ReminderLead, when set, is how far before each renewal the owner wants
	// a reminder. Empty means no reminders.
	ReminderLead ReminderLead

	// Contributions holds one row per participant, reused every cycle —
	// not one row per historical occurrence.
	Contributions []Contribution
}

// Ends reports whether the subscription has an end date.
func (s *Subscription) Ends() bool { return !s.EndDate.IsZero() }
