package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"movie-pulse/storage"
)

func main() {
	var (
		dataPath = flag.String("data", "./data", "Path to database directory")
		command  = flag.String("cmd", "up", "Migration command: up, down, status, version, reset")
	)
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	store := storage.NewSQLiteStorage(*dataPath, logger)
	if err := store.Initialize(); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer store.Close()

	switch *command {
	case "up":
		if err := store.RunMigrations(); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
		fmt.Println("Migrations completed successfully")

	case "down":
		if err := store.RollbackMigration(); err != nil {
			logger.Fatal().Err(err).Msg("failed to rollback migration")
		}
		fmt.Println("Migration rolled back successfully")

	case "status":
		migrationManager := store.GetMigrationManager()
		if err := migrationManager.Initialize(); err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize migration manager")
		}
		if err := migrationManager.Status(); err != nil {
			logger.Fatal().Err(err).Msg("failed to get migration status")
		}

	case "version":
		version, err := store.GetDatabaseVersion()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to get database version")
		}
		fmt.Printf("Database version: %d\n", version)

	case "reset":
		if err := store.ResetDatabase(); err != nil {
			logger.Fatal().Err(err).Msg("failed to reset database")
		}
		fmt.Println("Database reset completed successfully")

	default:
		fmt.Printf("Unknown command: %s\n", *command)
		fmt.Println("Available commands: up, down, status, version, reset")
		os.Exit(1)
	}
}
