package reconcile

import (
	"testing"

	"github.com/tallyhq/tally/internal/models"
)

func assigned(id, userID string, paid, owed int64) models.Contribution {
	return models.Contribution{
		ID:          id,
		Participant: models.AssignedTo(userID),
		AmountPaid:  paid,
		AmountOwed:  owed,
	}
}

func slot(id string, paid, owed int64) models.Contribution {
	return models.Contribution{
		ID:          id,
		Participant: models.Unassigned(),
		AmountPaid:  paid,
		AmountOwed:  owed,
	}
}

func TestDiffIDs(t *testing.T) {
	type row struct{ ID string }
	id := func(r row) string { return r.ID }

	old := []row{{"a"}, {"b"}, {"c"}}
	updated := []row{{"b"}, {"d"}}

	creates, deletes := DiffIDs(old, updated, id)

	if len(creates) != 1 || creates[0].ID != "d" {
		t.Errorf("creates = %+v, want [d]", creates)
	}
	if len(deletes) != 2 || deletes[0] != "a" || deletes[1] != "c" {
		t.Errorf("deletes = %v, want [a c]", deletes)
	}
}

func TestResolveFirstParticipant(t *testing.T) {
	proposed := []models.Contribution{
		{Participant: models.AssignedTo("u1"), AmountPaid: 10, AmountOwed: 10},
	}

	cs := Resolve(nil, proposed, nil)

	if len(cs.Creates) != 1 {
		t.Fatalf("creates = %+v, want one entry", cs.Creates)
	}
	c := cs.Creates[0]
	uid, ok := c.Participant.UserID()
	if !ok || uid != "u1" || c.AmountPaid != 10 || c.AmountOwed != 10 {
		t.Errorf("create = %+v, want u1 paid 10 owed 10", c)
	}
	if len(cs.Updates) != 0 || len(cs.Deletes) != 0 {
		t.Errorf("unexpected updates/deletes: %+v / %v", cs.Updates, cs.Deletes)
	}
	wantEvents := []models.Event{{Type: models.EventJoin, UserID: "u1", NewUser: true}}
	assertEvents(t, cs.Events, wantEvents)
}

func TestResolveLastParticipantLeaves(t *testing.T) {
	old := []models.Contribution{assigned("1", "u1", 10, 10)}

	cs := Resolve(old, nil, nil)

	if len(cs.Deletes) != 1 || cs.Deletes[0] != "1" {
		t.Errorf("deletes = %v, want [1]", cs.Deletes)
	}
	if len(cs.Creates) != 0 || len(cs.Updates) != 0 {
		t.Errorf("unexpected creates/updates: %+v / %+v", cs.Creates, cs.Updates)
	}
	assertEvents(t, cs.Events, []models.Event{{Type: models.EventLeave, UserID: "u1"}})
}

// Mixed edit: u2 leaves, u3 joins, u1's amounts change to a manual value and
// the untouched placeholder slot is replaced wholesale. Event order is
// leaves, joins, amount updates.
func TestResolveMixedEdit(t *testing.T) {
	old := []models.Contribution{
		assigned("1", "u1", 10, 10),
		assigned("2", "u2", 10, 10),
		slot("3", 10, 10),
	}
	proposed := []models.Contribution{
		{Participant: models.AssignedTo("u1"), AmountPaid: 20, AmountOwed: 20, ManualAmountOwed: true},
		{Participant: models.AssignedTo("u3"), AmountPaid: 10, AmountOwed: 10},
		{Participant: models.Unassigned(), AmountPaid: 10, AmountOwed: 10},
	}

	cs := Resolve(old, proposed, nil)

	if len(cs.Deletes) != 2 || cs.Deletes[0] != "2" || cs.Deletes[1] != "3" {
		t.Errorf("deletes = %v, want [2 3]", cs.Deletes)
	}

	if len(cs.Creates) != 2 {
		t.Fatalf("creates = %+v, want two entries", cs.Creates)
	}
	if uid, ok := cs.Creates[0].Participant.UserID(); !ok || uid != "u3" {
		t.Errorf("first create = %+v, want u3", cs.Creates[0])
	}
	if cs.Creates[1].Participant.Assigned() {
		t.Errorf("second create = %+v, want unassigned slot", cs.Creates[1])
	}

	if len(cs.Updates) != 1 {
		t.Fatalf("updates = %+v, want one entry", cs.Updates)
	}
	upd := cs.Updates[0]
	if upd.ID != "1" {
		t.Errorf("update id = %s, want 1", upd.ID)
	}
	if upd.AmountPaid == nil || *upd.AmountPaid != 20 {
		t.Errorf("update paid = %v, want 20", upd.AmountPaid)
	}
	if upd.AmountOwed == nil || *upd.AmountOwed != 20 {
		t.Errorf("update owed = %v, want 20", upd.AmountOwed)
	}
	if upd.ManualAmountOwed == nil || !*upd.ManualAmountOwed {
		t.Errorf("update manual = %v, want true", upd.ManualAmountOwed)
	}

	assertEvents(t, cs.Events, []models.Event{
		{Type: models.EventLeave, UserID: "u2"},
		{Type: models.EventJoin, UserID: "u3", NewUser: true},
		{Type: models.EventAmountUpdate, UserID: "u1"},
	})
}

// Resolving a set against itself is a structural no-op for any input.
func TestResolveIdempotent(t *testing.T) {
	sets := [][]models.Contribution{
		nil,
		{assigned("1", "u1", 10, 10)},
		{assigned("1", "u1", 30, 0), assigned("2", "u2", 0, 15), assigned("3", "u3", 0, 15)},
		{assigned("1", "u1", 10, 5), slot("2", 0, 5), slot("3", 0, 5)},
	}

	for _, set := range sets {
		cs := Resolve(set, set, nil)
		if !cs.Empty() {
			t.Errorf("Resolve(X, X) = %+v, want empty changeset", cs)
		}
	}
}

// Applying the changeset from (old, proposed) to old reproduces proposed:
// same participants, same amounts.
func TestResolveRoundTrip(t *testing.T) {
	old := []models.Contribution{
		assigned("1", "u1", 100, 0),
		assigned("2", "u2", 0, 50),
		slot("3", 0, 50),
	}
	proposed := []models.Contribution{
		{Participant: models.AssignedTo("u1"), AmountPaid: 120, AmountOwed: 0},
		{Participant: models.AssignedTo("u4"), AmountPaid: 0, AmountOwed: 60},
		{Participant: models.Unassigned(), AmountPaid: 0, AmountOwed: 60},
	}

	cs := Resolve(old, proposed, nil)
	applied := apply(old, cs)

	if len(applied) != len(proposed) {
		t.Fatalf("applied has %d rows, want %d", len(applied), len(proposed))
	}
	for _, want := range proposed {
		if !containsEquivalent(applied, want) {
			t.Errorf("applied set %+v missing %+v", applied, want)
		}
	}
}

func TestResolveFirstJoinCallback(t *testing.T) {
	proposed := []models.Contribution{
		{Participant: models.AssignedTo("seen-before")},
		{Participant: models.AssignedTo("brand-new")},
	}

	cs := Resolve(nil, proposed, func(userID string) bool {
		return userID == "brand-new"
	})

	assertEvents(t, cs.Events, []models.Event{
		{Type: models.EventJoin, UserID: "seen-before", NewUser: false},
		{Type: models.EventJoin, UserID: "brand-new", NewUser: true},
	})
}

func assertEvents(t *testing.T, got, want []models.Event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("events = %+v, want %+v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// apply replays a changeset over an old contribution set, the way the
// storage layer would.
func apply(old []models.Contribution, cs models.Changeset) []models.Contribution {
	deleted := make(map[string]bool)
	for _, id := range cs.Deletes {
		deleted[id] = true
	}

	var out []models.Contribution
	for _, c := range old {
		if deleted[c.ID] {
			continue
		}
		for _, upd := range cs.Updates {
			if upd.ID != c.ID {
				continue
			}
			if upd.AmountPaid != nil {
				c.AmountPaid = *upd.AmountPaid
			}
			if upd.AmountOwed != nil {
				c.AmountOwed = *upd.AmountOwed
			}
			if upd.ManualAmountOwed != nil {
				c.ManualAmountOwed = *upd.ManualAmountOwed
			}
			if upd.Participant != nil {
				c.Participant = *upd.Participant
			}
		}
		out = append(out, c)
	}
	return append(out, cs.Creates...)
}

func containsEquivalent(set []models.Contribution, want models.Contribution) bool {
	for _, c := range set {
		if c.Participant == want.Participant &&
			c.AmountPaid == want.AmountPaid &&
			c.AmountOwed == want.AmountOwed &&
			c.ManualAmountOwed == want.ManualAmountOwed {
			return true
		}
	}
	return false
}
