package storage

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
)

func TestMigrations(t *testing.T) {
	storage := newTestStorage(t)

	version, err := storage.GetDatabaseVersion()
	if err != nil {
		t.Fatalf("Failed to get database version: %v", err)
	}

	if version < 2 {
		t.Errorf("Expected database version >= 2, got %d", version)
	}

	db, err := storage.GetDB()
	if err != nil {
		t.Fatalf("Failed to get database: %v", err)
	}

	for _, table := range []string{"movies", "watch_history"} {
		var tableName string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&tableName)
		if err != nil {
			t.Fatalf("Table %s was not created: %v", table, err)
		}
	}

	// Running migrations again must be a no-op.
	if err := storage.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations again: %v", err)
	}

	newVersion, err := storage.GetDatabaseVersion()
	if err != nil {
		t.Fatalf("Failed to get database version after re-running migrations: %v", err)
	}

	if newVersion < version {
		t.Errorf("Database version went backwards: %d -> %d", version, newVersion)
	}
}

func TestMigrationManager(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	defer db.Close()

	migrationManager := NewMigrationManager(db, zerolog.Nop())
	if err := migrationManager.Initialize(); err != nil {
		t.Fatalf("Failed to initialize migration manager: %v", err)
	}

	version, err := migrationManager.Version()
	if err != nil {
		t.Fatalf("Failed to get initial version: %v", err)
	}
	if version != 0 {
		t.Errorf("Expected initial version 0, got %d", version)
	}

	if err := migrationManager.Up(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	version, err = migrationManager.Version()
	if err != nil {
		t.Fatalf("Failed to get version after migrations: %v", err)
	}
	if version < 2 {
		t.Errorf("Expected version >= 2 after migrations, got %d", version)
	}

	if err := migrationManager.Down(); err != nil {
		t.Fatalf("Failed to rollback migration: %v", err)
	}

	newVersion, err := migrationManager.Version()
	if err != nil {
		t.Fatalf("Failed to get version after rollback: %v", err)
	}
	if newVersion >= version {
		t.Errorf("Expected version to decrease after rollback: %d -> %d", version, newVersion)
	}
}
