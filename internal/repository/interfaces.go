package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/barnlog/internal/domain"
)

type BarnRepo interface {
	Create(ctx context.Context, b *domain.Barn) error
	GetByID(ctx context.Context, id string) (*domain.Barn, error)
	List(ctx context.Context) ([]*domain.Barn, error)
}

type RiderRepo interface {
	Create(ctx context.Context, r *domain.Rider) error
	GetByID(ctx context.Context, id string) (*domain.Rider, error)
	ListByBarn(ctx context.Context, barnID string) ([]*domain.Rider, error)
}

type HorseRepo interface {
	Create(ctx context.Context, h *domain.Horse) error
	GetByID(ctx context.Context, id string) (*domain.Horse, error)
	ListByBarn(ctx context.Context, barnID string) ([]*domain.Horse, error)
}

type SessionRepo interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	// ListByHorse returns up to limit sessions, newest first.
	ListByHorse(ctx context.Context, horseID string, limit int) ([]*domain.Session, error)
	// ListRowsForHorse returns the newest limit sessions dated on or after
	// since, ordered oldest first.
	ListRowsForHorse(ctx context.Context, horseID string, since time.Time, limit int) ([]*domain.Session, error)
	// CountCreatedSince counts sessions recorded strictly after t.
	CountCreatedSince(ctx context.Context, horseID string, t time.Time) (int, error)
}

type SummaryRepo interface {
	Create(ctx context.Context, s *domain.HorseSummary) error
	// Latest returns the most recently generated summary for a horse.
	Latest(ctx context.Context, horseID string) (*domain.HorseSummary, error)
}
