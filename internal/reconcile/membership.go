package reconcile

import (
	"errors"
	"fmt"

	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/models"
)

// ErrPayerCannotLeave is returned when the participant who paid for the
// event tries to leave it. Transferring payer status is not supported;
// the debt relationship has no defined owner afterwards.
var ErrPayerCannotLeave = errors.New("the paying participant cannot leave")

// Join builds the changeset for a user claiming a seat in an event.
//
// When contribID names an existing unassigned slot, the user takes it over;
// otherwise a fresh contribution is created. Owed amounts are then re-split:
// contributions with a manual amount, and slots that stay unassigned, keep
// what they have; the rest of total is divided evenly across the assigned
// non-manual participants, the joiner included.
func Join(contribs []models.Contribution, contribID, userID string, total int64, firstJoin FirstJoinFunc) (models.Changeset, error) {
	for _, c := range contribs {
		if uid, ok := c.Participant.UserID(); ok && uid == userID {
			return models.Changeset{}, fmt.Errorf("%w: user %s already participates", models.ErrInvalidArgument, userID)
		}
	}

	var cs models.Changeset

	// Claim the named slot if it exists and is still open.
	claimed := -1
	for i, c := range contribs {
		if c.ID == contribID && !c.Participant.Assigned() {
			claimed = i
			break
		}
	}

	// The split pool: assigned, non-manual contributions plus the joiner.
	// Everything outside the pool keeps its owed amount and is subtracted
	// from the total before splitting.
	type member struct {
		index   int // into contribs, -1 for a fresh joiner
		prevOwe int64
	}
	var pool []member
	var fixed int64
	for i, c := range contribs {
		if i == claimed {
			continue
		}
		if c.Participant.Assigned() && !c.ManualAmountOwed {
			pool = append(pool, member{index: i, prevOwe: c.AmountOwed})
		} else {
			fixed += c.AmountOwed
		}
	}
	pool = append(pool, member{index: claimed, prevOwe: -1})
	joiner := len(pool) - 1

	shares, err := calculator.Split(total-fixed, len(pool))
	if err != nil {
		return models.Changeset{}, err
	}

	for i, m := range pool {
		share := shares[i]
		switch {
		case i == joiner && claimed >= 0:
			participant := models.AssignedTo(userID)
			cs.Updates = append(cs.Updates, models.ContributionUpdate{
				ID:          contribID,
				Participant: &participant,
				AmountOwed:  &share,
			})
		case i == joiner:
			cs.Creates = append(cs.Creates, models.Contribution{
				Participant: models.AssignedTo(userID),
				AmountOwed:  share,
			})
		case share != m.prevOwe:
			owed := share
			cs.Updates = append(cs.Updates, models.ContributionUpdate{
				ID:         contribs[m.index].ID,
				AmountOwed: &owed,
			})
		}
	}

	cs.Events = append(cs.Events, models.Event{
		Type:    models.EventJoin,
		UserID:  userID,
		NewUser: firstJoin == nil || firstJoin(userID),
	})
	return cs, nil
}

// Leave builds the changeset for a user leaving an event. The leaver's owed
// amount is redistributed evenly across the remaining non-manual
// contributions. A user without a contribution leaves nothing to do and
// yields an empty changeset.
func Leave(contribs []models.Contribution, userID string) (models.Changeset, error) {
	leaving := -1
	for i, c := range contribs {
		if uid, ok := c.Participant.UserID(); ok && uid == userID {
			leaving = i
			break
		}
	}
	if leaving < 0 {
		return models.Changeset{}, nil
	}
	if contribs[leaving].AmountPaid > 0 {
		return models.Changeset{}, fmt.Errorf("%w: user %s paid for this event", ErrPayerCannotLeave, userID)
	}

	var cs models.Changeset
	cs.Deletes = append(cs.Deletes, contribs[leaving].ID)
	cs.Events = append(cs.Events, models.Event{Type: models.EventLeave, UserID: userID})

	var remaining []models.Contribution
	for i, c := range contribs {
		if i != leaving && !c.ManualAmountOwed {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) == 0 || contribs[leaving].AmountOwed == 0 {
		return cs, nil
	}

	shares, err := calculator.Split(contribs[leaving].AmountOwed, len(remaining))
	if err != nil {
		return models.Changeset{}, err
	}
	for i, c := range remaining {
		owed := c.AmountOwed + shares[i]
		cs.Updates = append(cs.Updates, models.ContributionUpdate{ID: c.ID, AmountOwed: &owed})
	}
	return cs, nil
}
