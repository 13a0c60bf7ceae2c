package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// execer covers both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertContribution writes one contribution row at the given position.
func insertContribution(ctx context.Context, e execer, owner storage.OwnerType, ownerID string, position int, c *models.Contribution) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = models.StatusPending
	}

	var userID any
	if uid, ok := c.Participant.UserID(); ok {
		userID = uid
	}

	_, err := e.ExecContext(ctx,
		`INSERT INTO contributions (id, owner_type, owner_id, position, user_id, amount_paid, amount_owed, manual_amount_owed, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, string(owner), ownerID, position, userID,
		c.AmountPaid, c.AmountOwed, boolToInt(c.ManualAmountOwed), string(c.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert contribution: %w", err)
	}
	return nil
}

// loadContributions reads one event's contributions in insertion order.
func (s *Store) loadContributions(ctx context.Context, owner storage.OwnerType, ownerID string) ([]models.Contribution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, amount_paid, amount_owed, manual_amount_owed, status
		 FROM contributions WHERE owner_type = ? AND owner_id = ? ORDER BY position, id`,
		string(owner), ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get contributions: %w", err)
	}
	defer rows.Close()

	var contribs []models.Contribution
	for rows.Next() {
		var (
			c      models.Contribution
			userID sql.NullString
			manual int
			status string
		)
		if err := rows.Scan(&c.ID, &userID, &c.AmountPaid, &c.AmountOwed, &manual, &status); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		if userID.Valid {
			c.Participant = models.AssignedTo(userID.String)
		} else {
			c.Participant = models.Unassigned()
		}
		c.ManualAmountOwed = manual != 0
		c.Status = models.ContributionStatus(status)
		contribs = append(contribs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return contribs, nil
}

// ApplyContributionChanges applies a resolver changeset to one event's
// contributions in a single transaction: deletes first, then updates, then
// creates, matching the resolver's ordering contract.
func (s *Store) ApplyContributionChanges(ctx context.Context, owner storage.OwnerType, ownerID string, cs models.Changeset) error {
	if cs.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range cs.Deletes {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM contributions WHERE id = ? AND owner_type = ? AND owner_id = ?",
			id, string(owner), ownerID,
		); err != nil {
			return fmt.Errorf("failed to delete contribution %s: %w", id, err)
		}
	}

	for _, upd := range cs.Updates {
		if err := applyUpdate(ctx, tx, owner, ownerID, upd); err != nil {
			return err
		}
	}

	var position int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), 0) FROM contributions WHERE owner_type = ? AND owner_id = ?",
		string(owner), ownerID,
	).Scan(&position); err != nil {
		return fmt.Errorf("failed to read contribution positions: %w", err)
	}
	for i := range cs.Creates {
		position++
		if err := insertContribution(ctx, tx, owner, ownerID, position, &cs.Creates[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func applyUpdate(ctx context.Context, tx *sql.Tx, owner storage.OwnerType, ownerID string, upd models.ContributionUpdate) error {
	set := ""
	var args []any
	add := func(col string, val any) {
		if set != "" {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, val)
	}

	if upd.AmountPaid != nil {
		add("amount_paid", *upd.AmountPaid)
	}
	if upd.AmountOwed != nil {
		add("amount_owed", *upd.AmountOwed)
	}
	if upd.ManualAmountOwed != nil {
		add("manual_amount_owed", boolToInt(*upd.ManualAmountOwed))
	}
	if upd.Participant != nil {
		if uid, ok := upd.Participant.UserID(); ok {
			add("user_id", uid)
		} else {
			add("user_id", nil)
		}
	}
	if set == "" {
		return nil
	}

	args = append(args, upd.ID, string(owner), ownerID)
	if _, err := tx.ExecContext(ctx,
		"UPDATE contributions SET "+set+" WHERE id = ? AND owner_type = ? AND owner_id = ?",
		args...,
	); err != nil {
		return fmt.Errorf("failed to update contribution %s: %w", upd.ID, err)
	}
	return nil
}

// SetContributionStatus moves a contribution through its notification
// lifecycle. A confirmed contribution never goes back.
func (s *Store) SetContributionStatus(ctx context.Context, contribID string, status models.ContributionStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE contributions SET status = ? WHERE id = ? AND status != ?",
		string(status), contribID, string(models.StatusConfirmed),
	)
	if err != nil {
		return fmt.Errorf("failed to update contribution status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("contribution %s: %w", contribID, storage.ErrNotFound)
	}
	return nil
}

// HasParticipated reports whether the user has ever had a contribution in
// any event.
func (s *Store) HasParticipated(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM contributions WHERE user_id = ? LIMIT 1", userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check participation: %w", err)
	}
	return true, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
