package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/barnlog/internal/db"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// notFound maps sql.ErrNoRows to ErrNotFound and wraps anything else.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("scanning %s: %w", what, err)
}

// parseTime parses a stored timestamp into dst.
func parseTime(raw string, dst *time.Time, column string) error {
	t, err := db.ParseTime(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", column, err)
	}
	*dst = t
	return nil
}

// checkAffected returns ErrNotFound when a write touched no rows.
func checkAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
