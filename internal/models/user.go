package models

import (
	"fmt"
	"time"
)

// User is a registered account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the login identifier (unique).
	Email string

	// DisplayName is shown to other participants.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// Timezone is an IANA zone name ("Europe/London"). Reminder thresholds
	// are evaluated in this zone. Defaults to UTC when empty.
	Timezone string

	// TelegramChatID, when non-zero, is where bot notifications for this
	// user are delivered.
	TelegramChatID int64

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}

// NewUser builds an unpersisted user. The storage layer assigns ID and
// CreatedAt.
func NewUser(email, displayName, passwordHash string) *User {
	return &User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
	}
}

// ValidateTimezone checks that the name resolves to an IANA zone.
func ValidateTimezone(name string) error {
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidArgument, name)
	}
	return nil
}
