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

// CreateSubscription persists a subscription together with its contribution
// rows.
func (s *Store) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var endDate any
	if sub.Ends() {
		endDate = sub.EndDate.String()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO subscriptions (id, name, owner_id, start_date, end_date, cycle_unit, cycle_value, amount, currency_code, reminder_lead, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Name, sub.OwnerID, sub.StartDate.String(), endDate,
		string(sub.Cycle.Unit), sub.Cycle.Value, sub.Amount, sub.CurrencyCode,
		string(sub.ReminderLead), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}

	for i := range sub.Contributions {
		if err := insertContribution(ctx, tx, storage.OwnerSubscription, sub.ID, i+1, &sub.Contributions[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSubscription retrieves a subscription by id, including contributions.
func (s *Store) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	sub, err := s.scanSubscription(s.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, start_date, end_date, cycle_unit, cycle_value, amount, currency_code, reminder_lead
		 FROM subscriptions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("subscription %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	sub.Contributions, err = s.loadContributions(ctx, storage.OwnerSubscription, sub.ID)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ListSubscriptionsByUser retrieves every subscription the user owns or
// contributes to.
func (s *Store) ListSubscriptionsByUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.name, s.owner_id, s.start_date, s.end_date, s.cycle_unit, s.cycle_value, s.amount, s.currency_code, s.reminder_lead
		 FROM subscriptions s
		 WHERE s.owner_id = ? OR EXISTS (
		     SELECT 1 FROM contributions c
		     WHERE c.owner_type = 'subscription' AND c.owner_id = s.id AND c.user_id = ?)
		 ORDER BY s.created_at`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		sub, err := s.scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}

	for _, sub := range subs {
		sub.Contributions, err = s.loadContributions(ctx, storage.OwnerSubscription, sub.ID)
		if err != nil {
			return nil, err
		}
	}
	return subs, nil
}

// UpdateSubscription updates the subscription row itself.
func (s *Store) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	var endDate any
	if sub.Ends() {
		endDate = sub.EndDate.String()
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET name = ?, start_date = ?, end_date = ?, cycle_unit = ?, cycle_value = ?, amount = ?, currency_code = ?, reminder_lead = ?
		 WHERE id = ?`,
		sub.Name, sub.StartDate.String(), endDate,
		string(sub.Cycle.Unit), sub.Cycle.Value, sub.Amount, sub.CurrencyCode,
		string(sub.ReminderLead), sub.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("subscription %s: %w", sub.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteSubscription removes a subscription and its contributions.
func (s *Store) DeleteSubscription(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM contributions WHERE owner_type = 'subscription' AND owner_id = ?", id,
	); err != nil {
		return fmt.Errorf("failed to delete contributions: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM subscriptions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("subscription %s: %w", id, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanSubscription(row scanner) (*models.Subscription, error) {
	var (
		sub       models.Subscription
		startDate string
		endDate   sql.NullString
		unit      string
		lead      string
	)
	err := row.Scan(&sub.ID, &sub.Name, &sub.OwnerID, &startDate, &endDate,
		&unit, &sub.Cycle.Value, &sub.Amount, &sub.CurrencyCode, &lead)
	if err != nil {
		return nil, err
	}

	sub.StartDate, err = models.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("bad start date in subscription %s: %w", sub.ID, err)
	}
	if endDate.Valid {
		sub.EndDate, err = models.ParseDate(endDate.String)
		if err != nil {
			return nil, fmt.Errorf("bad end date in subscription %s: %w", sub.ID, err)
		}
	}
	sub.Cycle.Unit = models.CycleUnit(unit)
	sub.ReminderLead = models.ReminderLead(lead)
	return &sub, nil
}
