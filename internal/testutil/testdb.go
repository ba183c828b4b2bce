package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/barnlog/internal/db"
	"github.com/alexanderramin/barnlog/internal/domain"
	"github.com/alexanderramin/barnlog/internal/repository"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}

// Stable is a barn with one rider and one horse already persisted.
type Stable struct {
	Barn  *domain.Barn
	Rider *domain.Rider
	Horse *domain.Horse
}

// SeedStable inserts a barn, a rider, and a horse into database.
func SeedStable(t *testing.T, database *sql.DB, riderName, horseName string) Stable {
	t.Helper()
	ctx := context.Background()
	barn := NewTestBarn("Test Barn")
	rider := NewTestRider(barn.ID, riderName)
	horse := NewTestHorse(barn.ID, horseName)

	if err := repository.NewSQLiteBarnRepo(database).Create(ctx, barn); err != nil {
		t.Fatalf("seeding barn: %v", err)
	}
	if err := repository.NewSQLiteRiderRepo(database).Create(ctx, rider); err != nil {
		t.Fatalf("seeding rider: %v", err)
	}
	if err := repository.NewSQLiteHorseRepo(database).Create(ctx, horse); err != nil {
		t.Fatalf("seeding horse: %v", err)
	}
	return Stable{Barn: barn, Rider: rider, Horse: horse}
}
