package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/reconcile"
	"github.com/tallyhq/tally/internal/storage"
)

// TransactionService manages one-off payments and settle-up transfers.
type TransactionService struct {
	store storage.Store
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(store storage.Store) *TransactionService {
	return &TransactionService{store: store}
}

// Create validates and persists a transaction owned by the caller.
// Contributions that owe nothing get an equal share of the amount;
// manual amounts are held fixed.
func (s *TransactionService) Create(ctx context.Context, ownerID string, txn *models.Transaction) (*models.Transaction, error) {
	slog.Info("CreateTransaction request", "owner_id", ownerID, "name", txn.Name, "type", txn.Type)

	txn.OwnerID = ownerID
	if err := validateTransaction(txn); err != nil {
		return nil, err
	}
	if err := splitTransaction(txn); err != nil {
		return nil, err
	}

	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		slog.Error("CreateTransaction failed", "error", err)
		return nil, err
	}

	slog.Info("Transaction created", "transaction_id", txn.ID)
	return txn, nil
}

// Settle records a balance-clearing transfer from the caller to another
// user. Settle transactions never count toward spend.
func (s *TransactionService) Settle(ctx context.Context, callerID, toUserID string, amount int64, currency string, date models.Date) (*models.Transaction, error) {
	if toUserID == "" || toUserID == callerID {
		return nil, fmt.Errorf("%w: settle needs a distinct counterparty", models.ErrInvalidArgument)
	}
	txn := &models.Transaction{
		Name:         "Settle up",
		Type:         models.TxSettle,
		Date:         date,
		Amount:       amount,
		CurrencyCode: currency,
		Contributions: []models.Contribution{
			{Participant: models.AssignedTo(callerID), AmountPaid: amount},
			{Participant: models.AssignedTo(toUserID), AmountOwed: amount},
		},
	}
	return s.Create(ctx, callerID, txn)
}

// Update applies an edited transaction. Only the owner may update.
// Contribution changes go through the same diff flow as subscriptions:
// the old set is loaded, diffed against the proposal and applied as one
// changeset before the row itself is rewritten.
func (s *TransactionService) Update(ctx context.Context, callerID string, txn *models.Transaction) (*models.Transaction, error) {
	slog.Info("UpdateTransaction request", "transaction_id", txn.ID, "caller_id", callerID)

	old, err := s.store.GetTransaction(ctx, txn.ID)
	if err != nil {
		return nil, err
	}
	if old.OwnerID != callerID {
		return nil, fmt.Errorf("transaction %s: %w", txn.ID, ErrForbidden)
	}

	txn.OwnerID = old.OwnerID
	if txn.Type == "" {
		txn.Type = old.Type
	}
	if err := validateTransaction(txn); err != nil {
		return nil, err
	}
	if err := splitTransaction(txn); err != nil {
		return nil, err
	}

	cs := reconcile.Resolve(old.Contributions, txn.Contributions, s.firstJoin(ctx))
	if !cs.Empty() {
		if err := s.store.ApplyContributionChanges(ctx, storage.OwnerTransaction, txn.ID, cs); err != nil {
			slog.Error("UpdateTransaction changeset failed", "transaction_id", txn.ID, "error", err)
			return nil, err
		}
	}

	if err := s.store.UpdateTransaction(ctx, txn); err != nil {
		slog.Error("UpdateTransaction failed", "transaction_id", txn.ID, "error", err)
		return nil, err
	}

	slog.Info("Transaction updated", "transaction_id", txn.ID, "events", len(cs.Events))
	return s.store.GetTransaction(ctx, txn.ID)
}

// Delete removes a transaction. Only the owner may delete.
func (s *TransactionService) Delete(ctx context.Context, callerID, id string) error {
	txn, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if txn.OwnerID != callerID {
		return fmt.Errorf("transaction %s: %w", id, ErrForbidden)
	}

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	slog.Info("Transaction deleted", "transaction_id", id)
	return nil
}

func (s *TransactionService) firstJoin(ctx context.Context) reconcile.FirstJoinFunc {
	return func(userID string) bool {
		seen, err := s.store.HasParticipated(ctx, userID)
		if err != nil {
			slog.Warn("HasParticipated lookup failed", "user_id", userID, "error", err)
			return false
		}
		return !seen
	}
}

// Get retrieves a transaction the caller owns or participates in.
func (s *TransactionService) Get(ctx context.Context, callerID, id string) (*models.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.OwnerID != callerID && !isParticipant(txn.Contributions, callerID) {
		return nil, fmt.Errorf("transaction %s: %w", id, ErrForbidden)
	}
	return txn, nil
}

// List retrieves every transaction the caller owns or contributes to.
func (s *TransactionService) List(ctx context.Context, callerID string) ([]*models.Transaction, error) {
	return s.store.ListTransactionsByUser(ctx, callerID)
}

// Spend sums the caller's owed shares across their payment transactions
// in the given date range. Settle transfers are excluded.
func (s *TransactionService) Spend(ctx context.Context, callerID string, from, to models.Date) (int64, error) {
	txns, err := s.store.ListTransactionsByUser(ctx, callerID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, txn := range txns {
		if txn.Date.Before(from) || txn.Date.After(to) {
			continue
		}
		total += calculator.TransactionSpend(callerID, txn)
	}
	return total, nil
}

func validateTransaction(txn *models.Transaction) error {
	if txn.Name == "" {
		return fmt.Errorf("%w: name required", models.ErrInvalidArgument)
	}
	if txn.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", models.ErrInvalidArgument)
	}
	if txn.CurrencyCode == "" {
		return fmt.Errorf("%w: currency code required", models.ErrInvalidArgument)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: date required", models.ErrInvalidArgument)
	}
	switch txn.Type {
	case "", models.TxPayment, models.TxSettle:
	default:
		return fmt.Errorf("%w: unknown transaction type %q", models.ErrInvalidArgument, txn.Type)
	}
	if len(txn.Contributions) == 0 {
		return fmt.Errorf("%w: at least one contribution required", models.ErrInvalidArgument)
	}
	return nil
}

func splitTransaction(txn *models.Transaction) error {
	if txn.Type == models.TxSettle {
		return nil
	}
	var open []int
	var fixed int64
	for i, c := range txn.Contributions {
		if c.ManualAmountOwed || c.AmountOwed != 0 {
			fixed += c.AmountOwed
			continue
		}
		open = append(open, i)
	}
	if len(open) == 0 {
		return nil
	}

	shares, err := calculator.Split(txn.Amount-fixed, len(open))
	if err != nil {
		return err
	}
	for i, idx := range open {
		txn.Contributions[idx].AmountOwed = shares[i]
	}
	return nil
}
