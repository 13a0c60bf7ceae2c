package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// CreateTransaction persists a transaction with its contributions.
func (s *Store) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.Type == "" {
		txn.Type = models.TxPayment
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, name, owner_id, type, tx_date, amount, currency_code, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.Name, txn.OwnerID, string(txn.Type), txn.Date.String(),
		txn.Amount, txn.CurrencyCode, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	for i := range txn.Contributions {
		if err := insertContribution(ctx, tx, storage.OwnerTransaction, txn.ID, i+1, &txn.Contributions[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction by id, including contributions.
func (s *Store) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	txn, err := scanTransaction(s.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, type, tx_date, amount, currency_code
		 FROM transactions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	txn.Contributions, err = s.loadContributions(ctx, storage.OwnerTransaction, txn.ID)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// ListTransactionsByUser retrieves every transaction the user owns or
// contributes to.
func (s *Store) ListTransactionsByUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.owner_id, t.type, t.tx_date, t.amount, t.currency_code
		 FROM transactions t
		 WHERE t.owner_id = ? OR EXISTS (
		     SELECT 1 FROM contributions c
		     WHERE c.owner_type = 'transaction' AND c.owner_id = t.id AND c.user_id = ?)
		 ORDER BY t.created_at`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	for _, txn := range txns {
		txn.Contributions, err = s.loadContributions(ctx, storage.OwnerTransaction, txn.ID)
		if err != nil {
			return nil, err
		}
	}
	return txns, nil
}

// UpdateTransaction updates the transaction row itself.
func (s *Store) UpdateTransaction(ctx context.Context, txn *models.Transaction) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions
		 SET name = ?, type = ?, tx_date = ?, amount = ?, currency_code = ?
		 WHERE id = ?`,
		txn.Name, string(txn.Type), txn.Date.String(), txn.Amount, txn.CurrencyCode, txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("transaction %s: %w", txn.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a transaction and its contributions.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM contributions WHERE owner_type = 'transaction' AND owner_id = ?", id,
	); err != nil {
		return fmt.Errorf("failed to delete contributions: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var (
		txn    models.Transaction
		txType string
		txDate string
	)
	err := row.Scan(&txn.ID, &txn.Name, &txn.OwnerID, &txType, &txDate, &txn.Amount, &txn.CurrencyCode)
	if err != nil {
		return nil, err
	}
	txn.Type = models.TransactionType(txType)
	txn.Date, err = models.ParseDate(txDate)
	if err != nil {
		return nil, fmt.Errorf("bad date in transaction %s: %w", txn.ID, err)
	}
	return &txn, nil
}
