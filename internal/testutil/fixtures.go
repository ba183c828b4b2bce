package testutil

import (
	"time"

	"github.com/alexanderramin/barnlog/internal/domain"
	"github.com/google/uuid"
)

func NewTestBarn(name string) *domain.Barn {
	return &domain.Barn{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

func NewTestRider(barnID, name string) *domain.Rider {
	return &domain.Rider{
		ID:        uuid.New().String(),
		BarnID:    barnID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

func NewTestHorse(barnID, name string) *domain.Horse {
	return &domain.Horse{
		ID:        uuid.New().String(),
		BarnID:    barnID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// Session options
type SessionOption func(*domain.Session)

func WithDate(d time.Time) SessionOption {
	return func(s *domain.Session) {
		s.Date = d
	}
}

func WithWorkType(w domain.WorkType) SessionOption {
	return func(s *domain.Session) {
		s.WorkType = w
	}
}

func WithNotes(n string) SessionOption {
	return func(s *domain.Session) {
		s.Notes = n
	}
}

func WithMinutes(m int) SessionOption {
	return func(s *domain.Session) {
		s.DurationMinutes = m
	}
}

func WithCreatedAt(t time.Time) SessionOption {
	return func(s *domain.Session) {
		s.CreatedAt = t
	}
}

// NewTestSession builds a 45 minute flatwork session ridden today.
func NewTestSession(horseID string, rider *domain.Rider, opts ...SessionOption) *domain.Session {
	now := time.Now().UTC()
	s := &domain.Session{
		ID:              uuid.New().String(),
		HorseID:         horseID,
		RiderID:         rider.ID,
		RiderName:       rider.Name,
		Date:            now,
		WorkType:        domain.WorkFlat,
		DurationMinutes: 45,
		CreatedAt:       now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

