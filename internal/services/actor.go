package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/wellspring/maternal-backend/internal/types"
)

// Actor is the authenticated caller, threaded explicitly through every
// mutation instead of being read from ambient request state.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) CanAdminister() bool {
	return types.CanAdminister(a.Role)
}

func (a Actor) IDPtr() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}

// dateOnly truncates to a UTC calendar date so comparisons against
// date columns ignore the time of day.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
