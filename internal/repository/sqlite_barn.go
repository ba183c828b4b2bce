package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/barnlog/internal/db"
	"github.com/alexanderramin/barnlog/internal/domain"
)

// SQLiteBarnRepo implements BarnRepo.
type SQLiteBarnRepo struct {
	db db.DBTX
}

func NewSQLiteBarnRepo(conn db.DBTX) *SQLiteBarnRepo {
	return &SQLiteBarnRepo{db: conn}
}

func (r *SQLiteBarnRepo) Create(ctx context.Context, b *domain.Barn) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO barns (id, name, created_at) VALUES (?, ?, ?)`,
		b.ID, b.Name, db.FormatTime(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting barn: %w", err)
	}
	return nil
}

func (r *SQLiteBarnRepo) GetByID(ctx context.Context, id string) (*domain.Barn, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM barns WHERE id = ?`, id)
	return scanBarn(row)
}

func (r *SQLiteBarnRepo) List(ctx context.Context) ([]*domain.Barn, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM barns ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing barns: %w", err)
	}
	defer rows.Close()

	var barns []*domain.Barn
	for rows.Next() {
		b, err := scanBarn(rows)
		if err != nil {
			return nil, err
		}
		barns = append(barns, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating barns: %w", err)
	}
	return barns, nil
}

func scanBarn(s scanner) (*domain.Barn, error) {
	var b domain.Barn
	var createdAt string
	if err := s.Scan(&b.ID, &b.Name, &createdAt); err != nil {
		return nil, notFound(err, "barn")
	}
	if err := parseTime(createdAt, &b.CreatedAt, "created_at"); err != nil {
		return nil, err
	}
	return &b, nil
}

// SQLiteRiderRepo implements RiderRepo.
type SQLiteRiderRepo struct {
	db db.DBTX
}

func NewSQLiteRiderRepo(conn db.DBTX) *SQLiteRiderRepo {
	return &SQLiteRiderRepo{db: conn}
}

func (r *SQLiteRiderRepo) Create(ctx context.Context, rider *domain.Rider) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO riders (id, barn_id, name, created_at) VALUES (?, ?, ?, ?)`,
		rider.ID, rider.BarnID, rider.Name, db.FormatTime(rider.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting rider: %w", err)
	}
	return nil
}

func (r *SQLiteRiderRepo) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, barn_id, name, created_at FROM riders WHERE id = ?`, id)
	return scanRider(row)
}

func (r *SQLiteRiderRepo) ListByBarn(ctx context.Context, barnID string) ([]*domain.Rider, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, barn_id, name, created_at FROM riders WHERE barn_id = ? ORDER BY name, id`, barnID)
	if err != nil {
		return nil, fmt.Errorf("listing riders by barn: %w", err)
	}
	defer rows.Close()

	var riders []*domain.Rider
	for rows.Next() {
		rd, err := scanRider(rows)
		if err != nil {
			return nil, err
		}
		riders = append(riders, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating riders: %w", err)
	}
	return riders, nil
}

func scanRider(s scanner) (*domain.Rider, error) {
	var rd domain.Rider
	var createdAt string
	if err := s.Scan(&rd.ID, &rd.BarnID, &rd.Name, &createdAt); err != nil {
		return nil, notFound(err, "rider")
	}
	if err := parseTime(createdAt, &rd.CreatedAt, "created_at"); err != nil {
		return nil, err
	}
	return &rd, nil
}
