package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

func TestTransactionService(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	t.Run("splits open shares", func(t *testing.T) {
		txn, err := env.txns.Create(ctx, env.alice.ID, &models.Transaction{
			Name:         "Dinner",
			Date:         models.NewDate(2023, time.March, 10),
			Amount:       6000,
			CurrencyCode: "EUR",
			Contributions: []models.Contribution{
				{Participant: models.AssignedTo(env.alice.ID), AmountPaid: 6000},
				{Participant: models.AssignedTo(env.bob.ID)},
				{Participant: models.AssignedTo(env.carol.ID)},
			},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if txn.Type != models.TxPayment {
			t.Errorf("expected default type PAYMENT, got %s", txn.Type)
		}
		for i, c := range txn.Contributions {
			if c.AmountOwed != 2000 {
				t.Errorf("contribution %d: expected owed 2000, got %d", i, c.AmountOwed)
			}
		}
	})

	t.Run("outsider cannot read", func(t *testing.T) {
		txns, err := env.txns.List(ctx, env.alice.ID)
		if err != nil || len(txns) == 0 {
			t.Fatalf("List failed: %v", err)
		}
		other := models.NewUser("dave@example.com", "dave", "hash")
		if err := env.store.CreateUser(ctx, other); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if _, err := env.txns.Get(ctx, other.ID, txns[0].ID); !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("settle excluded from spend", func(t *testing.T) {
		_, err := env.txns.Settle(ctx, env.bob.ID, env.alice.ID, 2000, "EUR", models.NewDate(2023, time.March, 12))
		if err != nil {
			t.Fatalf("Settle failed: %v", err)
		}

		from := models.NewDate(2023, time.March, 1)
		to := models.NewDate(2023, time.March, 31)
		spend, err := env.txns.Spend(ctx, env.bob.ID, from, to)
		if err != nil {
			t.Fatalf("Spend failed: %v", err)
		}
		if spend != 2000 {
			t.Errorf("expected bob's spend 2000 (dinner share only), got %d", spend)
		}
	})

	t.Run("settle to self rejected", func(t *testing.T) {
		_, err := env.txns.Settle(ctx, env.bob.ID, env.bob.ID, 100, "EUR", models.NewDate(2023, time.March, 12))
		if !errors.Is(err, models.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("owner edits re-split contributions", func(t *testing.T) {
		dinner := findTransaction(t, env, env.alice.ID, "Dinner")

		updated, err := env.txns.Update(ctx, env.alice.ID, &models.Transaction{
			ID:           dinner.ID,
			Name:         "Dinner",
			Date:         dinner.Date,
			Amount:       6000,
			CurrencyCode: "EUR",
			Contributions: []models.Contribution{
				{Participant: models.AssignedTo(env.alice.ID), AmountPaid: 6000},
				{Participant: models.AssignedTo(env.bob.ID)},
			},
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if len(updated.Contributions) != 2 {
			t.Fatalf("expected carol removed, got %+v", updated.Contributions)
		}
		for i, c := range updated.Contributions {
			if c.AmountOwed != 3000 {
				t.Errorf("contribution %d: expected owed 3000, got %d", i, c.AmountOwed)
			}
		}
	})

	t.Run("only owner updates or deletes", func(t *testing.T) {
		dinner := findTransaction(t, env, env.alice.ID, "Dinner")

		if _, err := env.txns.Update(ctx, env.bob.ID, dinner); !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden on update, got %v", err)
		}
		if err := env.txns.Delete(ctx, env.bob.ID, dinner.ID); !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden on delete, got %v", err)
		}

		if err := env.txns.Delete(ctx, env.alice.ID, dinner.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := env.txns.Get(ctx, env.alice.ID, dinner.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func findTransaction(t *testing.T, env *testEnv, callerID, name string) *models.Transaction {
	t.Helper()
	txns, err := env.txns.List(context.Background(), callerID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, txn := range txns {
		if txn.Name == name {
			return txn
		}
	}
	t.Fatalf("transaction %q not found", name)
	return nil
}

func TestBalanceService(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	// Monthly subscription from Feb 1, 3000 split between alice (payer) and
	// bob. Clock fixed at Mar 20: 2 renewals passed.
	_, err := env.subs.Create(ctx, env.alice.ID, &models.Subscription{
		Name:         "Streaming",
		StartDate:    models.NewDate(2023, time.February, 1),
		Cycle:        models.Cycle{Unit: models.UnitMonth, Value: 1},
		Amount:       3000,
		CurrencyCode: "EUR",
		Contributions: []models.Contribution{
			{Participant: models.AssignedTo(env.alice.ID), AmountPaid: 3000, AmountOwed: 1500},
			{Participant: models.AssignedTo(env.bob.ID), AmountOwed: 1500},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// One-off dinner in USD paid by bob, alice owes 2500.
	_, err = env.txns.Create(ctx, env.bob.ID, &models.Transaction{
		Name:         "Dinner",
		Date:         models.NewDate(2023, time.March, 5),
		Amount:       5000,
		CurrencyCode: "USD",
		Contributions: []models.Contribution{
			{Participant: models.AssignedTo(env.bob.ID), AmountPaid: 5000, AmountOwed: 2500},
			{Participant: models.AssignedTo(env.alice.ID), AmountOwed: 2500},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("balances per currency", func(t *testing.T) {
		balances, err := env.balances.Balances(ctx, env.alice.ID)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		want := map[string]int64{"EUR": 3000, "USD": -2500}
		if len(balances) != 2 {
			t.Fatalf("expected 2 balance entries, got %+v", balances)
		}
		for _, b := range balances {
			if b.UserID != env.bob.ID {
				t.Errorf("expected balance against bob, got %s", b.UserID)
			}
			if b.Amount != want[b.CurrencyCode] {
				t.Errorf("%s: expected %d, got %d", b.CurrencyCode, want[b.CurrencyCode], b.Amount)
			}
		}
	})

	t.Run("converted balances collapse to base currency", func(t *testing.T) {
		// 1 EUR = 1.25 USD, so -2500 USD converts to -2000 EUR.
		if err := env.store.SetFxRate(ctx, "EUR", "USD", decimal.RequireFromString("1.25")); err != nil {
			t.Fatalf("SetFxRate failed: %v", err)
		}

		balances, err := env.balances.ConvertedBalances(ctx, env.alice.ID)
		if err != nil {
			t.Fatalf("ConvertedBalances failed: %v", err)
		}
		if len(balances) != 1 {
			t.Fatalf("expected 1 combined entry, got %+v", balances)
		}
		if balances[0].CurrencyCode != "EUR" || balances[0].Amount != 1000 {
			t.Errorf("expected 1000 EUR net, got %+v", balances[0])
		}
	})
}
