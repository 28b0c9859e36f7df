package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"movie-pulse/notifier"
	"movie-pulse/scheduler"
	"movie-pulse/scraper"
	"movie-pulse/storage"
	"movie-pulse/syncer"
)

const (
	defaultDataPath       = "./data"
	defaultRequestTimeout = 15 * time.Second
)

func main() {
	logger := newLogger()
	logger.Info().Msg("starting movie-pulse")

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = defaultDataPath
	}

	store := storage.NewSQLiteStorage(dataPath, logger)
	if err := store.Initialize(); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer store.Close()

	client := scraper.NewSourceClient(defaultRequestTimeout, logger)
	parser := scraper.NewPageParser(logger)
	catalog := scraper.NewCatalogScraper(client, parser, os.Getenv("SOURCE_BASE_URL"), logger)

	orchestrator := syncer.NewOrchestrator(catalog, store, syncer.Config{
		ItemDelay: envDuration("SYNC_ITEM_DELAY", 0),
	}, logger)
	syncService := syncer.NewService(orchestrator, logger)

	var summaryNotifier scheduler.SummaryNotifier
	if emailConfig := notifier.GetEmailConfigFromEnv(); emailConfig.Enabled() {
		emailNotifier, err := notifier.NewEmailNotifier(emailConfig, logger)
		if err != nil {
			logger.Error().Err(err).Msg("failed to create email notifier")
		} else {
			summaryNotifier = emailNotifier
			logger.Info().Str("recipient", emailConfig.RecipientEmail).Msg("sync reports will be emailed")
		}
	} else {
		logger.Info().Msg("email notifications disabled: missing configuration")
	}

	switch runMode := os.Getenv("RUN_MODE"); runMode {
	case "", "scheduler":
		runScheduler(logger, store, syncService, summaryNotifier)

	case "once":
		runOnce(logger, store, syncService)

	default:
		logger.Fatal().Str("run_mode", runMode).Msg("unknown run mode, expected scheduler or once")
	}

	logger.Info().Msg("movie-pulse exiting")
}

// runScheduler keeps the two sync cadences going until the process is
// signalled to stop.
func runScheduler(logger zerolog.Logger, store *storage.SQLiteStorage, syncService *syncer.Service, summaryNotifier scheduler.SummaryNotifier) {
	sched := scheduler.NewScheduler(logger)

	partialJob := scheduler.NewPartialSyncJob(syncService, summaryNotifier, logger)
	fullJob := scheduler.NewFullSyncJob(syncService, summaryNotifier, logger)

	if err := sched.AddJob(scheduler.PartialSyncSpec, partialJob); err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule partial sync")
	}
	if err := sched.AddJob(scheduler.FullSyncSpec, fullJob); err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule full sync")
	}

	sched.Start()
	logger.Info().
		Str("partial", scheduler.PartialSyncSpec).
		Str("full", scheduler.FullSyncSpec).
		Msg("sync schedules registered")

	if os.Getenv("RUN_AT_STARTUP") == "true" {
		logger.Info().Msg("running initial partial sync at startup")
		if err := sched.RunJobNow(partialJob.Name()); err != nil {
			logger.Error().Err(err).Msg("initial sync failed")
		}
	}

	displayDatabaseStats(logger, store)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info().Msg("daemon running, press Ctrl+C to exit")
	sig := <-quit
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	sched.Stop()
}

// runOnce performs one administratively triggered sync and exits.
func runOnce(logger zerolog.Logger, store *storage.SQLiteStorage, syncService *syncer.Service) {
	pages := envInt("SYNC_PAGES", scheduler.PartialSyncPages)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	summary, err := syncService.Run(ctx, pages)
	if err != nil {
		logger.Error().Err(err).Msg("manual sync finished with errors")
	}
	logger.Info().
		Int("seen", summary.ItemsSeen).
		Int("upserted", summary.ItemsUpserted).
		Int("failed", summary.ItemsFailed).
		Msg("manual sync finished")

	displayDatabaseStats(logger, store)
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return fallback
}

func displayDatabaseStats(logger zerolog.Logger, store *storage.SQLiteStorage) {
	stats, err := store.GetStats()
	if err != nil {
		logger.Error().Err(err).Msg("failed to get database stats")
		return
	}

	logger.Info().
		Int("total", stats["total"]).
		Int("singles", stats["singles"]).
		Int("series", stats["series"]).
		Msg("database statistics")
}
