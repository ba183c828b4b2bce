package domain

import (
	"fmt"
	"time"
)

// MaxSessionMinutes bounds a single logged session.
const MaxSessionMinutes = 600

type Session struct {
	ID              string
	HorseID         string
	RiderID         string
	RiderName       string
	Date            time.Time
	WorkType        WorkType
	DurationMinutes int
	Notes           string
	CreatedAt       time.Time
}

// Validate checks the fields a caller supplies when logging a session.
func (s *Session) Validate() error {
	if s.HorseID == "" {
		return fmt.Errorf("horse is required")
	}
	if s.RiderID == "" {
		return fmt.Errorf("rider is required")
	}
	if !s.WorkType.Valid() {
		return fmt.Errorf("unknown work type %q", s.WorkType)
	}
	if s.DurationMinutes <= 0 || s.DurationMinutes > MaxSessionMinutes {
		return fmt.Errorf("duration must be between 1 and %d minutes, got %d", MaxSessionMinutes, s.DurationMinutes)
	}
	if s.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	return nil
}
