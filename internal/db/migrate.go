package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate applies every schema statement. Statements are idempotent so the
// full list is replayed on each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form in SQLite.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS barns (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS riders (
		id         TEXT PRIMARY KEY,
		barn_id    TEXT NOT NULL REFERENCES barns(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_riders_barn ON riders(barn_id)`,

	`CREATE TABLE IF NOT EXISTS horses (
		id         TEXT PRIMARY KEY,
		barn_id    TEXT NOT NULL REFERENCES barns(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_horses_barn ON horses(barn_id)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id               TEXT PRIMARY KEY,
		horse_id         TEXT NOT NULL REFERENCES horses(id) ON DELETE CASCADE,
		rider_id         TEXT NOT NULL REFERENCES riders(id) ON DELETE CASCADE,
		rider_name       TEXT NOT NULL DEFAULT '',
		date             TEXT NOT NULL,
		work_type        TEXT NOT NULL
		                 CHECK(work_type IN ('flat','jumping','poles','hack','lunge','groundwork','conditioning','other')),
		duration_minutes INTEGER NOT NULL CHECK(duration_minutes > 0),
		notes            TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_horse_date ON sessions(horse_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_horse_created ON sessions(horse_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS horse_summaries (
		id                TEXT PRIMARY KEY,
		horse_id          TEXT NOT NULL REFERENCES horses(id) ON DELETE CASCADE,
		text              TEXT NOT NULL,
		signals_json      TEXT NOT NULL DEFAULT '{}',
		prompt_version    TEXT NOT NULL DEFAULT '',
		model             TEXT NOT NULL DEFAULT '',
		attempts          INTEGER NOT NULL DEFAULT 1,
		prompt_tokens     INTEGER NOT NULL DEFAULT 0,
		completion_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens      INTEGER NOT NULL DEFAULT 0,
		generated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_summaries_horse_generated ON horse_summaries(horse_id, generated_at)`,
}
