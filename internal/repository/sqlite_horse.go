package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/barnlog/internal/db"
	"github.com/alexanderramin/barnlog/internal/domain"
)

// SQLiteHorseRepo implements HorseRepo.
type SQLiteHorseRepo struct {
	db db.DBTX
}

func NewSQLiteHorseRepo(conn db.DBTX) *SQLiteHorseRepo {
	return &SQLiteHorseRepo{db: conn}
}

func (r *SQLiteHorseRepo) Create(ctx context.Context, h *domain.Horse) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO horses (id, barn_id, name, created_at) VALUES (?, ?, ?, ?)`,
		h.ID, h.BarnID, h.Name, db.FormatTime(h.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting horse: %w", err)
	}
	return nil
}

func (r *SQLiteHorseRepo) GetByID(ctx context.Context, id string) (*domain.Horse, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, barn_id, name, created_at FROM horses WHERE id = ?`, id)
	return scanHorse(row)
}

func (r *SQLiteHorseRepo) ListByBarn(ctx context.Context, barnID string) ([]*domain.Horse, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, barn_id, name, created_at FROM horses WHERE barn_id = ? ORDER BY name, id`, barnID)
	if err != nil {
		return nil, fmt.Errorf("listing horses by barn: %w", err)
	}
	defer rows.Close()

	var horses []*domain.Horse
	for rows.Next() {
		h, err := scanHorse(rows)
		if err != nil {
			return nil, err
		}
		horses = append(horses, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating horses: %w", err)
	}
	return horses, nil
}

func scanHorse(s scanner) (*domain.Horse, error) {
	var h domain.Horse
	var createdAt string
	if err := s.Scan(&h.ID, &h.BarnID, &h.Name, &createdAt); err != nil {
		return nil, notFound(err, "horse")
	}
	if err := parseTime(createdAt, &h.CreatedAt, "created_at"); err != nil {
		return nil, err
	}
	return &h, nil
}
