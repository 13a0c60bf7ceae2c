// Package reconcile diffs an old contribution set against a proposed one,
// producing a persistence-ready changeset plus derived domain events. Like
// the calculator and billing packages it is pure: the caller hands in a
// consistent snapshot and applies the resulting changeset atomically,
// re-fetching and re-resolving on write conflict.
package reconcile

import (
	"github.com/tallyhq/tally/internal/models"
)

// DiffIDs is the generic array resolver for simple id-keyed collections:
// deletions are old ids missing from new, creations are new entries whose id
// is missing from old. It does no update detection; consumers needing
// updates special-case them.
func DiffIDs[T any](old, updated []T, id func(T) string) (creates []T, deletes []string) {
	oldIDs := make(map[string]bool, len(old))
	for _, o := range old {
		oldIDs[id(o)] = true
	}
	newIDs := make(map[string]bool, len(updated))
	for _, n := range updated {
		newIDs[id(n)] = true
	}

	for _, o := range old {
		if !newIDs[id(o)] {
			deletes = append(deletes, id(o))
		}
	}
	for _, n := range updated {
		if !oldIDs[id(n)] {
			creates = append(creates, n)
		}
	}
	return creates, deletes
}

// FirstJoinFunc reports whether a user id has never appeared in the
// underlying event's history. The resolver is a structural diff and cannot
// know this on its own; callers that track history supply the lookup. A nil
// func treats every join as a first join.
type FirstJoinFunc func(userID string) bool

// Resolve diffs old (persisted, with ids) against proposed contributions.
//
// Assigned participants match by user id. Unassigned placeholder slots match
// only when a proposed entry carries the slot's row id: id-less proposed
// slots are always created fresh and old slots nobody references are
// deleted. Slots produce no events — there is no user to notify.
//
// Deletes are emitted before creates; events are ordered leaves, then joins,
// then amount updates. Identical old and proposed sets yield an empty
// changeset.
func Resolve(old, proposed []models.Contribution, firstJoin FirstJoinFunc) models.Changeset {
	oldByUser := make(map[string]models.Contribution)
	oldSlotIDs := make(map[string]models.Contribution)
	for _, c := range old {
		if uid, ok := c.Participant.UserID(); ok {
			oldByUser[uid] = c
		} else if c.ID != "" {
			oldSlotIDs[c.ID] = c
		}
	}

	newByUser := make(map[string]models.Contribution)
	claimedSlots := make(map[string]models.Contribution)
	for _, c := range proposed {
		if uid, ok := c.Participant.UserID(); ok {
			newByUser[uid] = c
		} else if c.ID != "" {
			claimedSlots[c.ID] = c
		}
	}

	var cs models.Changeset
	var leaves, joins, amountUpdates []models.Event

	// Departures first: old rows with no counterpart.
	for _, c := range old {
		if uid, ok := c.Participant.UserID(); ok {
			if _, stays := newByUser[uid]; !stays {
				cs.Deletes = append(cs.Deletes, c.ID)
				leaves = append(leaves, models.Event{Type: models.EventLeave, UserID: uid})
			}
		} else if _, kept := claimedSlots[c.ID]; !kept {
			cs.Deletes = append(cs.Deletes, c.ID)
		}
	}

	// Arrivals: proposed rows with no counterpart.
	for _, c := range proposed {
		if uid, ok := c.Participant.UserID(); ok {
			if _, known := oldByUser[uid]; !known {
				cs.Creates = append(cs.Creates, c)
				joins = append(joins, models.Event{
					Type:    models.EventJoin,
					UserID:  uid,
					NewUser: firstJoin == nil || firstJoin(uid),
				})
			}
		} else if _, known := oldSlotIDs[c.ID]; c.ID == "" || !known {
			cs.Creates = append(cs.Creates, c)
		}
	}

	// Amount changes on matched rows.
	for _, c := range proposed {
		if uid, ok := c.Participant.UserID(); ok {
			prev, known := oldByUser[uid]
			if !known {
				continue
			}
			if upd, changed := amountDiff(prev, c); changed {
				cs.Updates = append(cs.Updates, upd)
				amountUpdates = append(amountUpdates, models.Event{Type: models.EventAmountUpdate, UserID: uid})
			}
		} else if prev, known := oldSlotIDs[c.ID]; known {
			if upd, changed := amountDiff(prev, c); changed {
				cs.Updates = append(cs.Updates, upd)
			}
		}
	}

	cs.Events = append(cs.Events, leaves...)
	cs.Events = append(cs.Events, joins...)
	cs.Events = append(cs.Events, amountUpdates...)
	return cs
}

// amountDiff builds a partial update carrying only the fields that differ.
func amountDiff(prev, next models.Contribution) (models.ContributionUpdate, bool) {
	upd := models.ContributionUpdate{ID: prev.ID}
	changed := false
	if prev.AmountPaid != next.AmountPaid {
		paid := next.AmountPaid
		upd.AmountPaid = &paid
		changed = true
	}
	if prev.AmountOwed != next.AmountOwed {
		owed := next.AmountOwed
		upd.AmountOwed = &owed
		changed = true
	}
	if prev.ManualAmountOwed != next.ManualAmountOwed {
		manual := next.ManualAmountOwed
		upd.ManualAmountOwed = &manual
		changed = true
	}
	return upd, changed
}
