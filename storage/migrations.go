package storage

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type MigrationManager struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewMigrationManager(db *sql.DB, logger zerolog.Logger) *MigrationManager {
	return &MigrationManager{db: db, log: logger}
}

func (m *MigrationManager) Initialize() error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return nil
}

func (m *MigrationManager) Up() error {
	if err := goose.Up(m.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	m.log.Info().Msg("database migrations completed")
	return nil
}

func (m *MigrationManager) Down() error {
	if err := goose.Down(m.db, "migrations"); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	m.log.Info().Msg("database migration rolled back")
	return nil
}

func (m *MigrationManager) Status() error {
	if err := goose.Status(m.db, "migrations"); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

func (m *MigrationManager) Version() (int64, error) {
	version, err := goose.GetDBVersion(m.db)
	if err != nil {
		return 0, fmt.Errorf("failed to get database version: %w", err)
	}
	return version, nil
}

func (m *MigrationManager) Reset() error {
	if err := goose.Reset(m.db, "migrations"); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	m.log.Info().Msg("database reset completed")
	return nil
}
