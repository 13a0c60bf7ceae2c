package billing

import (
	"testing"
	"time"

	"github.com/tallyhq/tally/internal/clock"
	"github.com/tallyhq/tally/internal/models"
)

func sharedSub(id string) *models.Subscription {
	return &models.Subscription{
		ID:           id,
		StartDate:    date(2023, time.January, 15),
		Cycle:        models.Cycle{Unit: models.UnitMonth, Value: 1},
		Amount:       4500,
		CurrencyCode: "EUR",
		Contributions: []models.Contribution{
			{ID: "c1", Participant: models.AssignedTo("u1"), AmountPaid: 4500, AmountOwed: 0},
			{ID: "c2", Participant: models.AssignedTo("u2"), AmountOwed: 1500},
			{ID: "c3", Participant: models.AssignedTo("u3"), AmountOwed: 1500},
		},
	}
}

func TestUserSpend(t *testing.T) {
	engine := NewEngine(clock.At(date(2023, time.June, 1).Time()))

	soloSub := &models.Subscription{
		ID:           "solo",
		StartDate:    date(2023, time.February, 1),
		Cycle:        models.Cycle{Unit: models.UnitMonth, Value: 1},
		Amount:       999,
		CurrencyCode: "EUR",
		Contributions: []models.Contribution{
			{ID: "c4", Participant: models.AssignedTo("u2"), AmountPaid: 999, AmountOwed: 999},
		},
	}
	zeroOwed := &models.Subscription{
		ID:        "zero",
		StartDate: date(2023, time.January, 1),
		Cycle:     models.Cycle{Unit: models.UnitMonth, Value: 1},
		Contributions: []models.Contribution{
			{ID: "c5", Participant: models.AssignedTo("u2"), AmountOwed: 0},
		},
	}

	subs := []*models.Subscription{sharedSub("shared"), soloSub, zeroOwed}

	// Feb 1 - Mar 31: shared renews Feb 15 + Mar 15, solo renews Feb 1 + Mar 1.
	got, err := engine.UserSpend("u2", subs, date(2023, time.February, 1), date(2023, time.March, 31))
	if err != nil {
		t.Fatalf("UserSpend() error = %v", err)
	}
	want := int64(2*1500 + 2*999)
	if got != want {
		t.Errorf("spend = %d, want %d", got, want)
	}

	// A user with no contribution anywhere spends nothing.
	got, err = engine.UserSpend("stranger", subs, date(2023, time.January, 1), date(2023, time.December, 31))
	if err != nil {
		t.Fatalf("UserSpend() error = %v", err)
	}
	if got != 0 {
		t.Errorf("stranger spend = %d, want 0", got)
	}
}

func TestSubsTotalSpend(t *testing.T) {
	engine := NewEngine(clock.At(date(2023, time.June, 1).Time()))

	active := sharedSub("active")
	dormant := &models.Subscription{
		ID:        "dormant",
		StartDate: date(2024, time.January, 1),
		Cycle:     models.Cycle{Unit: models.UnitYear, Value: 1},
		Amount:    12000,
	}

	summary, err := engine.SubsTotalSpend(
		[]*models.Subscription{active, dormant},
		date(2023, time.February, 1), date(2023, time.March, 31),
	)
	if err != nil {
		t.Fatalf("SubsTotalSpend() error = %v", err)
	}
	if summary.Total != 2*4500 {
		t.Errorf("total = %d, want %d", summary.Total, 2*4500)
	}
	if len(summary.RenewingIDs) != 1 || summary.RenewingIDs[0] != "active" {
		t.Errorf("renewing ids = %v, want [active]", summary.RenewingIDs)
	}
}

func TestTransfers(t *testing.T) {
	sub := sharedSub("s1")

	t.Run("non-payer owes the payer", func(t *testing.T) {
		got := Transfers(sub, "u2", 2)
		if len(got) != 1 {
			t.Fatalf("transfers = %+v, want one entry", got)
		}
		want := models.UserBalance{UserID: "u1", Amount: -3000, CurrencyCode: "EUR"}
		if got[0] != want {
			t.Errorf("transfer = %+v, want %+v", got[0], want)
		}
	})

	t.Run("payer is owed by everyone else", func(t *testing.T) {
		got := Transfers(sub, "u1", 2)
		if len(got) != 2 {
			t.Fatalf("transfers = %+v, want two entries", got)
		}
		wantFirst := models.UserBalance{UserID: "u2", Amount: 3000, CurrencyCode: "EUR"}
		wantSecond := models.UserBalance{UserID: "u3", Amount: 3000, CurrencyCode: "EUR"}
		if got[0] != wantFirst || got[1] != wantSecond {
			t.Errorf("transfers = %+v, want [%+v %+v]", got, wantFirst, wantSecond)
		}
	})

	t.Run("fewer than two assigned participants", func(t *testing.T) {
		solo := &models.Subscription{
			CurrencyCode: "EUR",
			Contributions: []models.Contribution{
				{Participant: models.AssignedTo("u1"), AmountPaid: 100},
				{Participant: models.Unassigned(), AmountOwed: 100},
			},
		}
		if got := Transfers(solo, "u1", 3); got != nil {
			t.Errorf("transfers = %+v, want nil", got)
		}
	})

	t.Run("no payer yields nothing", func(t *testing.T) {
		unpaid := &models.Subscription{
			CurrencyCode: "EUR",
			Contributions: []models.Contribution{
				{Participant: models.AssignedTo("u1"), AmountOwed: 50},
				{Participant: models.AssignedTo("u2"), AmountOwed: 50},
			},
		}
		if got := Transfers(unpaid, "u1", 1); got != nil {
			t.Errorf("transfers = %+v, want nil", got)
		}
	})
}

func TestEngineBalances(t *testing.T) {
	// Fixed at Mar 20: renewals passed are Jan 15, Feb 15, Mar 15 = 3 cycles.
	engine := NewEngine(clock.At(date(2023, time.March, 20).Time()))

	got, err := engine.Balances(sharedSub("s1"), "u2")
	if err != nil {
		t.Fatalf("Balances() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("balances = %+v, want one entry", got)
	}
	want := models.UserBalance{UserID: "u1", Amount: -4500, CurrencyCode: "EUR"}
	if got[0] != want {
		t.Errorf("balance = %+v, want %+v", got[0], want)
	}
}

func TestEngineNextRenewal(t *testing.T) {
	engine := NewEngine(clock.At(date(2023, time.March, 20).Time()))

	next, err := engine.NextRenewal(sharedSub("s1"))
	if err != nil {
		t.Fatalf("NextRenewal() error = %v", err)
	}
	if want := date(2023, time.April, 15); !next.Equal(want) {
		t.Errorf("next renewal = %s, want %s", next, want)
	}
}
