package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/barnlog/internal/domain"
	"github.com/alexanderramin/barnlog/internal/repository"
)

const maxNameLength = 80

func cleanName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid(fmt.Errorf("%s name is required", kind))
	}
	if len([]rune(name)) > maxNameLength {
		return "", invalid(fmt.Errorf("%s name must be at most %d characters", kind, maxNameLength))
	}
	return name, nil
}

type barnService struct {
	barns repository.BarnRepo
}

func NewBarnService(barns repository.BarnRepo) BarnService {
	return &barnService{barns: barns}
}

func (s *barnService) Create(ctx context.Context, name string) (*domain.Barn, error) {
	name, err := cleanName("barn", name)
	if err != nil {
		return nil, err
	}
	b := &domain.Barn{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	if err := s.barns.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *barnService) GetByID(ctx context.Context, id string) (*domain.Barn, error) {
	return s.barns.GetByID(ctx, id)
}

func (s *barnService) List(ctx context.Context) ([]*domain.Barn, error) {
	return s.barns.List(ctx)
}

type riderService struct {
	barns  repository.BarnRepo
	riders repository.RiderRepo
}

func NewRiderService(barns repository.BarnRepo, riders repository.RiderRepo) RiderService {
	return &riderService{barns: barns, riders: riders}
}

func (s *riderService) Add(ctx context.Context, barnID, name string) (*domain.Rider, error) {
	name, err := cleanName("rider", name)
	if err != nil {
		return nil, err
	}
	if _, err := s.barns.GetByID(ctx, barnID); err != nil {
		return nil, err
	}
	r := &domain.Rider{ID: uuid.New().String(), BarnID: barnID, Name: name, CreatedAt: time.Now().UTC()}
	if err := s.riders.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *riderService) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	return s.riders.GetByID(ctx, id)
}

func (s *riderService) ListByBarn(ctx context.Context, barnID string) ([]*domain.Rider, error) {
	return s.riders.ListByBarn(ctx, barnID)
}

type horseService struct {
	barns  repository.BarnRepo
	horses repository.HorseRepo
}

func NewHorseService(barns repository.BarnRepo, horses repository.HorseRepo) HorseService {
	return &horseService{barns: barns, horses: horses}
}

func (s *horseService) Add(ctx context.Context, barnID, name string) (*domain.Horse, error) {
	name, err := cleanName("horse", name)
	if err != nil {
		return nil, err
	}
	if _, err := s.barns.GetByID(ctx, barnID); err != nil {
		return nil, err
	}
	h := &domain.Horse{ID: uuid.New().String(), BarnID: barnID, Name: name, CreatedAt: time.Now().UTC()}
	if err := s.horses.Create(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *horseService) Get(ctx context.Context, barnID, id string) (*domain.Horse, error) {
	return ScopedHorse(ctx, s.horses, barnID, id)
}

func (s *horseService) ListByBarn(ctx context.Context, barnID string) ([]*domain.Horse, error) {
	return s.horses.ListByBarn(ctx, barnID)
}

// ScopedHorse loads a horse and hides it unless it belongs to barnID.
func ScopedHorse(ctx context.Context, horses repository.HorseRepo, barnID, id string) (*domain.Horse, error) {
	h, err := horses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !h.BelongsTo(barnID) {
		return nil, fmt.Errorf("horse %s: %w", id, repository.ErrNotFound)
	}
	return h, nil
}

// IsNotFound reports whether err is a missing or out-of-barn entity.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
