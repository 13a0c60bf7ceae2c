// Package service holds the application services that sit between the HTTP
// surface and the core packages. Services validate input, enforce access
// rules and orchestrate storage, reconciliation and notifications.
package service

import (
	"errors"

	"github.com/tallyhq/tally/internal/models"
)

var (
	// ErrForbidden is returned when the caller is not allowed to touch the
	// requested resource.
	ErrForbidden = errors.New("forbidden")
)

// canAccess reports whether the caller owns the subscription or holds one
// of its contributions.
func canAccess(sub *models.Subscription, callerID string) bool {
	if sub.OwnerID == callerID {
		return true
	}
	return isParticipant(sub.Contributions, callerID)
}

func isParticipant(contribs []models.Contribution, callerID string) bool {
	for _, c := range contribs {
		if uid, ok := c.Participant.UserID(); ok && uid == callerID {
			return true
		}
	}
	return false
}
