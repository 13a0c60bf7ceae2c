package models

// EventType classifies a reconciliation domain event.
type EventType string

const (
	EventJoin         EventType = "join"
	EventLeave        EventType = "leave"
	EventAmountUpdate EventType = "amount_update"
)

// Event is a domain event derived from reconciling two contribution sets.
// The core only produces events; the notification layer decides who to
// message and with what template.
type Event struct {
	Type   EventType
	UserID string

	// NewUser is set on join events when this is the first time the user
	// appears in the event's history (as reported by the caller).
	NewUser bool
}

// Changeset is a persistence-ready diff between two contribution sets.
// It is transient: only its effects are stored, applied together in one
// storage transaction. On a write conflict the caller re-fetches and
// re-resolves; the changeset itself carries no version information.
type Changeset struct {
	Creates []Contribution
	Updates []ContributionUpdate
	Deletes []string
	Events  []Event
}

// Empty reports whether the changeset is a structural no-op.
// An empty changeset is a valid, idempotent result, not an error.
func (c Changeset) Empty() bool {
	return len(c.Creates) == 0 && len(c.Updates) == 0 && len(c.Deletes) == 0 && len(c.Events) == 0
}
