package service

import (
	"context"

	"github.com/alexanderramin/barnlog/internal/domain"
)

type BarnService interface {
	Create(ctx context.Context, name string) (*domain.Barn, error)
	GetByID(ctx context.Context, id string) (*domain.Barn, error)
	List(ctx context.Context) ([]*domain.Barn, error)
}

type RiderService interface {
	Add(ctx context.Context, barnID, name string) (*domain.Rider, error)
	GetByID(ctx context.Context, id string) (*domain.Rider, error)
	ListByBarn(ctx context.Context, barnID string) ([]*domain.Rider, error)
}

// HorseService reads are scoped to a barn. A horse stabled elsewhere is
// reported as repository.ErrNotFound.
type HorseService interface {
	Add(ctx context.Context, barnID, name string) (*domain.Horse, error)
	Get(ctx context.Context, barnID, id string) (*domain.Horse, error)
	ListByBarn(ctx context.Context, barnID string) ([]*domain.Horse, error)
}

type SessionService interface {
	LogSession(ctx context.Context, barnID string, s *domain.Session) error
	ListByHorse(ctx context.Context, barnID, horseID string, limit int) ([]*domain.Session, error)
	Delete(ctx context.Context, barnID, id string) error
}
