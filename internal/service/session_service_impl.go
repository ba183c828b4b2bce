package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/barnlog/internal/db"
	"github.com/alexanderramin/barnlog/internal/domain"
	"github.com/alexanderramin/barnlog/internal/repository"
)

const (
	DefaultSessionListLimit = 50
	MaxSessionListLimit     = 200
)

type sessionService struct {
	horses   repository.HorseRepo
	sessions repository.SessionRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewSessionService(
	horses repository.HorseRepo,
	sessions repository.SessionRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) SessionService {
	return &sessionService{
		horses:   horses,
		sessions: sessions,
		uow:      uow,
		observer: ObserverOrNoop(observers),
	}
}

// LogSession validates s, checks that its horse and rider are both in
// barnID, fills in the rider's name, and persists it.
func (s *sessionService) LogSession(ctx context.Context, barnID string, session *domain.Session) (err error) {
	fields := map[string]any{"horse_id": session.HorseID, "work_type": string(session.WorkType)}
	defer Observe(ctx, s.observer, "log-session", time.Now(), fields, &err)

	session.Notes = strings.TrimSpace(session.Notes)
	if err = session.Validate(); err != nil {
		return invalid(err)
	}
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	session.CreatedAt = time.Now().UTC()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txHorses := repository.NewSQLiteHorseRepo(tx)
		txRiders := repository.NewSQLiteRiderRepo(tx)
		txSessions := repository.NewSQLiteSessionRepo(tx)

		if _, err := ScopedHorse(ctx, txHorses, barnID, session.HorseID); err != nil {
			return err
		}
		rider, err := txRiders.GetByID(ctx, session.RiderID)
		if errors.Is(err, repository.ErrNotFound) {
			return invalid(fmt.Errorf("rider %s not found", session.RiderID))
		}
		if err != nil {
			return err
		}
		if rider.BarnID != barnID {
			return invalid(errors.New("rider is not a member of this barn"))
		}
		session.RiderName = rider.Name

		return txSessions.Create(ctx, session)
	})
}

func (s *sessionService) ListByHorse(ctx context.Context, barnID, horseID string, limit int) ([]*domain.Session, error) {
	if _, err := ScopedHorse(ctx, s.horses, barnID, horseID); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultSessionListLimit
	case limit > MaxSessionListLimit:
		limit = MaxSessionListLimit
	}
	return s.sessions.ListByHorse(ctx, horseID, limit)
}

func (s *sessionService) Delete(ctx context.Context, barnID, id string) (err error) {
	defer Observe(ctx, s.observer, "delete-session", time.Now(), map[string]any{"session_id": id}, &err)

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteSessionRepo(tx)
		session, err := txSessions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		_, err = ScopedHorse(ctx, repository.NewSQLiteHorseRepo(tx), barnID, session.HorseID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("session %s: %w", id, repository.ErrNotFound)
		}
		if err != nil {
			return err
		}
		return txSessions.Delete(ctx, id)
	})
}
