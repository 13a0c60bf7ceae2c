// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// OwnerType identifies which kind of money event a contribution belongs to.
type OwnerType string

const (
	OwnerSubscription OwnerType = "subscription"
	OwnerTransaction  OwnerType = "transaction"
)

// Store defines the interface for tally's storage operations. This
// abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Contribution edits go through ApplyContributionChanges, which applies a
// resolver changeset in a single transaction. The changeset is computed over
// a snapshot; a caller that races another writer re-fetches the rows and
// re-resolves rather than retrying the same changeset.
type Store interface {
	// CreateUser persists a new user, assigning ID and CreatedAt.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by id.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// ListUsersWithNotifications retrieves users who have a notification
	// channel configured. Backs the reminder sweep.
	ListUsersWithNotifications(ctx context.Context) ([]*models.User, error)

	// UpdateUser updates mutable user fields (display name, timezone,
	// notification channel).
	UpdateUser(ctx context.Context, user *models.User) error

	// CreateSubscription persists a subscription together with its
	// contribution rows, assigning ids.
	CreateSubscription(ctx context.Context, sub *models.Subscription) error

	// GetSubscription retrieves a subscription including contributions.
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)

	// ListSubscriptionsByUser retrieves every subscription the user owns or
	// contributes to.
	ListSubscriptionsByUser(ctx context.Context, userID string) ([]*models.Subscription, error)

	// UpdateSubscription updates the subscription row itself; contribution
	// edits go through ApplyContributionChanges.
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error

	// DeleteSubscription removes a subscription and its contributions.
	DeleteSubscription(ctx context.Context, id string) error

	// CreateTransaction persists a transaction with its contributions.
	CreateTransaction(ctx context.Context, tx *models.Transaction) error

	// GetTransaction retrieves a transaction including contributions.
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)

	// ListTransactionsByUser retrieves every transaction the user owns or
	// contributes to.
	ListTransactionsByUser(ctx context.Context, userID string) ([]*models.Transaction, error)

	// UpdateTransaction updates the transaction row itself; contribution
	// edits go through ApplyContributionChanges.
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error

	// DeleteTransaction removes a transaction and its contributions.
	DeleteTransaction(ctx context.Context, id string) error

	// ApplyContributionChanges applies a changeset's deletes, updates and
	// creates to one event's contributions atomically. Events in the
	// changeset are not persisted; the notification layer owns them.
	ApplyContributionChanges(ctx context.Context, owner OwnerType, ownerID string, cs models.Changeset) error

	// SetContributionStatus moves a contribution through its notification
	// lifecycle. CONFIRMED is terminal: a confirmed contribution never goes
	// back to PENDING.
	SetContributionStatus(ctx context.Context, contribID string, status models.ContributionStatus) error

	// HasParticipated reports whether the user has ever had a contribution
	// in any event. Backs the resolver's first-join lookup.
	HasParticipated(ctx context.Context, userID string) (bool, error)

	// FxRates loads the stored exchange-rate table, quoted per unit of the
	// given base currency.
	FxRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)

	// Close releases any resources held by the store.
	Close() error
}
