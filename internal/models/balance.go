package models

// UserBalance is one user's net position toward the reference user in one
// currency. Positive means the user owes the reference user; negative means
// the reference user owes them. Ephemeral: recomputed on read, never stored.
type UserBalance struct {
	UserID       string
	Amount       int64
	CurrencyCode string
}
