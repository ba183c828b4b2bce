package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/barnlog/internal/db"
	"github.com/alexanderramin/barnlog/internal/domain"
)

const sessionColumns = `id, horse_id, rider_id, rider_name, date, work_type, duration_minutes, notes, created_at`

// SQLiteSessionRepo implements SessionRepo using a SQLite database.
type SQLiteSessionRepo struct {
	db db.DBTX
}

// NewSQLiteSessionRepo creates a new SQLiteSessionRepo.
func NewSQLiteSessionRepo(conn db.DBTX) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{db: conn}
}

func (r *SQLiteSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	query := `INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.HorseID,
		s.RiderID,
		s.RiderName,
		db.FormatTime(s.Date),
		string(s.WorkType),
		s.DurationMinutes,
		s.Notes,
		db.FormatTime(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

func (r *SQLiteSessionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return checkAffected(res, "session")
}

func (r *SQLiteSessionRepo) ListByHorse(ctx context.Context, horseID string, limit int) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE horse_id = ?
		ORDER BY date DESC, created_at DESC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, horseID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions by horse: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (r *SQLiteSessionRepo) ListRowsForHorse(ctx context.Context, horseID string, since time.Time, limit int) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM (
			SELECT ` + sessionColumns + ` FROM sessions
			WHERE horse_id = ? AND date >= ?
			ORDER BY date DESC, created_at DESC
			LIMIT ?
		)
		ORDER BY date ASC, created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, horseID, db.FormatTime(since), limit)
	if err != nil {
		return nil, fmt.Errorf("listing session rows for horse: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (r *SQLiteSessionRepo) CountCreatedSince(ctx context.Context, horseID string, t time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE horse_id = ? AND created_at > ?`,
		horseID, db.FormatTime(t)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting sessions since: %w", err)
	}
	return n, nil
}

func scanSession(s scanner) (*domain.Session, error) {
	var sess domain.Session
	var workType, date, createdAt string
	err := s.Scan(
		&sess.ID, &sess.HorseID, &sess.RiderID, &sess.RiderName,
		&date, &workType, &sess.DurationMinutes, &sess.Notes, &createdAt,
	)
	if err != nil {
		return nil, notFound(err, "session")
	}
	sess.WorkType = domain.WorkType(workType)
	if err := parseTime(date, &sess.Date, "date"); err != nil {
		return nil, err
	}
	if err := parseTime(createdAt, &sess.CreatedAt, "created_at"); err != nil {
		return nil, err
	}
	return &sess, nil
}

func scanSessions(rows *sql.Rows) ([]*domain.Session, error) {
	var sessions []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}
