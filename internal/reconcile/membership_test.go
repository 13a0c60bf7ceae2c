package reconcile

import (
	"errors"
	"testing"

	"github.com/tallyhq/tally/internal/models"
)

func TestJoinClaimsSlot(t *testing.T) {
	contribs := []models.Contribution{
		assigned("1", "u1", 3000, 1000),
		assigned("2", "u2", 0, 1000),
		slot("3", 0, 1000),
	}

	cs, err := Join(contribs, "3", "u3", 3000, nil)
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	if len(cs.Creates) != 0 || len(cs.Deletes) != 0 {
		t.Errorf("unexpected creates/deletes: %+v / %v", cs.Creates, cs.Deletes)
	}

	// The even split leaves u1 and u2 untouched; only the claimed slot
	// changes hands.
	if len(cs.Updates) != 1 {
		t.Fatalf("updates = %+v, want one entry", cs.Updates)
	}
	upd := cs.Updates[0]
	if upd.ID != "3" {
		t.Errorf("update id = %s, want 3", upd.ID)
	}
	if upd.Participant == nil {
		t.Fatal("update participant = nil, want assignment to u3")
	}
	if uid, ok := upd.Participant.UserID(); !ok || uid != "u3" {
		t.Errorf("update participant = %v, want u3", upd.Participant)
	}
	if upd.AmountOwed == nil || *upd.AmountOwed != 1000 {
		t.Errorf("update owed = %v, want 1000", upd.AmountOwed)
	}

	assertEvents(t, cs.Events, []models.Event{{Type: models.EventJoin, UserID: "u3", NewUser: true}})
}

func TestJoinHoldsManualAmountsFixed(t *testing.T) {
	contribs := []models.Contribution{
		{ID: "1", Participant: models.AssignedTo("u1"), AmountPaid: 3000, AmountOwed: 500, ManualAmountOwed: true},
		assigned("2", "u2", 0, 1000),
		slot("3", 0, 1500),
	}

	cs, err := Join(contribs, "3", "u3", 3000, nil)
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	// 3000 - 500 manual = 2500 split across u2 and the joiner.
	owedByID := map[string]int64{}
	for _, upd := range cs.Updates {
		if upd.AmountOwed != nil {
			owedByID[upd.ID] = *upd.AmountOwed
		}
	}
	if owedByID["2"] != 1250 {
		t.Errorf("u2 owed = %d, want 1250", owedByID["2"])
	}
	if owedByID["3"] != 1250 {
		t.Errorf("joiner owed = %d, want 1250", owedByID["3"])
	}
}

func TestJoinWithoutSlotCreatesFresh(t *testing.T) {
	contribs := []models.Contribution{
		assigned("1", "u1", 2000, 1000),
		assigned("2", "u2", 0, 1000),
	}

	cs, err := Join(contribs, "nonexistent", "u3", 2000, nil)
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	if len(cs.Creates) != 1 {
		t.Fatalf("creates = %+v, want one entry", cs.Creates)
	}
	joiner := cs.Creates[0]
	if uid, ok := joiner.Participant.UserID(); !ok || uid != "u3" {
		t.Errorf("create participant = %v, want u3", joiner.Participant)
	}
	// 2000 across three people: 667, 667, 666; the joiner is last in the
	// split order.
	if joiner.AmountOwed != 666 {
		t.Errorf("joiner owed = %d, want 666", joiner.AmountOwed)
	}

	owedByID := map[string]int64{}
	for _, upd := range cs.Updates {
		if upd.AmountOwed != nil {
			owedByID[upd.ID] = *upd.AmountOwed
		}
	}
	if owedByID["1"] != 667 || owedByID["2"] != 667 {
		t.Errorf("updates = %+v, want owed 667 for ids 1 and 2", cs.Updates)
	}
}

func TestJoinTwiceRejected(t *testing.T) {
	contribs := []models.Contribution{assigned("1", "u1", 100, 100)}

	_, err := Join(contribs, "", "u1", 100, nil)
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestLeaveRedistributesOwed(t *testing.T) {
	contribs := []models.Contribution{
		assigned("1", "u1", 3000, 1000),
		assigned("2", "u2", 0, 1000),
		assigned("3", "u3", 0, 1000),
	}

	cs, err := Leave(contribs, "u3")
	if err != nil {
		t.Fatalf("Leave() error = %v", err)
	}

	if len(cs.Deletes) != 1 || cs.Deletes[0] != "3" {
		t.Errorf("deletes = %v, want [3]", cs.Deletes)
	}
	assertEvents(t, cs.Events, []models.Event{{Type: models.EventLeave, UserID: "u3"}})

	owedByID := map[string]int64{}
	for _, upd := range cs.Updates {
		if upd.AmountOwed != nil {
			owedByID[upd.ID] = *upd.AmountOwed
		}
	}
	if owedByID["1"] != 1500 || owedByID["2"] != 1500 {
		t.Errorf("updates = %+v, want owed 1500 for ids 1 and 2", cs.Updates)
	}
}

func TestLeaveSkipsManualContributions(t *testing.T) {
	contribs := []models.Contribution{
		assigned("1", "u1", 3000, 1000),
		{ID: "2", Participant: models.AssignedTo("u2"), AmountOwed: 800, ManualAmountOwed: true},
		assigned("3", "u3", 0, 1200),
	}

	cs, err := Leave(contribs, "u3")
	if err != nil {
		t.Fatalf("Leave() error = %v", err)
	}

	// The whole 1200 lands on the only non-manual remainder.
	if len(cs.Updates) != 1 || cs.Updates[0].ID != "1" {
		t.Fatalf("updates = %+v, want single update for id 1", cs.Updates)
	}
	if *cs.Updates[0].AmountOwed != 2200 {
		t.Errorf("u1 owed = %d, want 2200", *cs.Updates[0].AmountOwed)
	}
}

// The payer cannot leave: transferring the debt relationship to another
// participant has no defined semantics.
func TestLeavePayerRejected(t *testing.T) {
	contribs := []models.Contribution{
		assigned("1", "u1", 3000, 1000),
		assigned("2", "u2", 0, 1000),
	}

	_, err := Leave(contribs, "u1")
	if !errors.Is(err, ErrPayerCannotLeave) {
		t.Errorf("error = %v, want ErrPayerCannotLeave", err)
	}
}

func TestLeaveUnknownUserIsNoop(t *testing.T) {
	contribs := []models.Contribution{assigned("1", "u1", 100, 100)}

	cs, err := Leave(contribs, "ghost")
	if err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if !cs.Empty() {
		t.Errorf("changeset = %+v, want empty", cs)
	}
}
