package models

// Participant identifies who a contribution belongs to: a concrete user, or
// an open placeholder slot that a user can claim later. The distinction is
// load-bearing for the changeset resolver — assigned participants are
// matched by user id, unassigned slots only by row id.
type Participant struct {
	userID   string
	assigned bool
}

// AssignedTo returns a participant bound to the given user.
func AssignedTo(userID string) Participant {
	return Participant{userID: userID, assigned: true}
}

// Unassigned returns an open placeholder participant.
func Unassigned() Participant {
	return Participant{}
}

// UserID returns the bound user id, and whether the participant is assigned.
func (p Participant) UserID() (string, bool) {
	return p.userID, p.assigned
}

// Assigned reports whether the participant is bound to a user.
func (p Participant) Assigned() bool { return p.assigned }

func (p Participant) String() string {
	if !p.assigned {
		return "<unassigned>"
	}
	return p.userID
}

// ContributionStatus is the notification/acknowledgement lifecycle of a
// contribution. It is persisted alongside the amounts but irrelevant to the
// money math. There is no transition from CONFIRMED back to PENDING.
type ContributionStatus string

const (
	StatusConfirmed    ContributionStatus = "CONFIRMED"
	StatusPending      ContributionStatus = "PENDING"
	StatusNotDelivered ContributionStatus = "NOT_DELIVERED"
)

// Contribution is one participant's stake in a single money event — a
// transaction, or one cycle of a subscription (a subscription keeps one
// contribution row per participant, reused every cycle).
type Contribution struct {
	// ID is the storage identifier (UUID). Empty until persisted; proposed
	// contributions in a changeset usually have no ID yet.
	ID string

	Participant Participant

	// AmountPaid is what this participant paid toward the event, in minor
	// currency units. Within one event at most one contribution should have
	// AmountPaid > 0 (the payer); callers enforce that, not the resolver.
	AmountPaid int64

	// AmountOwed is this participant's share, in minor currency units.
	// Conventionally 0 for a payer who does not also owe themselves.
	AmountOwed int64

	// ManualAmountOwed is true when the owed amount was hand-edited.
	// Manual amounts are held fixed and excluded from automatic re-splits.
	ManualAmountOwed bool

	Status ContributionStatus
}

// ContributionUpdate is a partial update to a persisted contribution.
// Nil fields are left untouched.
type ContributionUpdate struct {
	ID               string
	AmountPaid       *int64
	AmountOwed       *int64
	ManualAmountOwed *bool
	Participant      *Participant
}
