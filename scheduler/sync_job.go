package scheduler

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"movie-pulse/syncer"
)

// The two cadences against the same sync service: a frequent partial pass
// over the freshest pages and a daily deep pass.
const (
	PartialSyncPages = 5
	FullSyncPages    = 20

	PartialSyncSpec = "0 0 */4 * * *" // every 4 hours
	FullSyncSpec    = "0 0 3 * * *"   // daily at 03:00
)

// SyncRunner is implemented by syncer.Service; all triggers share its run
// state so two syncs never execute concurrently.
type SyncRunner interface {
	Run(ctx context.Context, pageCount int) (syncer.Summary, error)
}

// SummaryNotifier receives the outcome of a finished scheduled run.
type SummaryNotifier interface {
	NotifySyncSummary(jobName string, summary syncer.Summary, runErr error) error
}

// SyncJob triggers one sync of a fixed page count through the shared sync
// service. If another sync is still executing when the trigger fires, the
// run is skipped rather than queued.
type SyncJob struct {
	name     string
	pages    int
	service  SyncRunner
	notifier SummaryNotifier
	log      zerolog.Logger
}

func NewPartialSyncJob(service SyncRunner, notifier SummaryNotifier, logger zerolog.Logger) *SyncJob {
	return newSyncJob("partial_sync", PartialSyncPages, service, notifier, logger)
}

func NewFullSyncJob(service SyncRunner, notifier SummaryNotifier, logger zerolog.Logger) *SyncJob {
	return newSyncJob("full_sync", FullSyncPages, service, notifier, logger)
}

func newSyncJob(name string, pages int, service SyncRunner, notifier SummaryNotifier, logger zerolog.Logger) *SyncJob {
	return &SyncJob{
		name:     name,
		pages:    pages,
		service:  service,
		notifier: notifier,
		log:      logger.With().Str("component", "sync_job").Str("job", name).Logger(),
	}
}

// Name returns the name of the job
func (j *SyncJob) Name() string {
	return j.name
}

// Run executes one sync. A scheduled run that fails is logged and reported
// to the notifier but never takes the daemon down; the previously synced
// catalog stays valid and keeps being served.
func (j *SyncJob) Run(ctx context.Context) error {
	summary, err := j.service.Run(ctx, j.pages)
	if errors.Is(err, syncer.ErrSyncInProgress) {
		j.log.Warn().Msg("previous sync still running, skipping this trigger")
		return err
	}

	j.log.Info().
		Int("seen", summary.ItemsSeen).
		Int("upserted", summary.ItemsUpserted).
		Int("failed", summary.ItemsFailed).
		Msg("sync job finished")

	if j.notifier != nil {
		if nerr := j.notifier.NotifySyncSummary(j.name, summary, err); nerr != nil {
			j.log.Error().Err(nerr).Msg("failed to send sync summary notification")
		}
	}

	return err
}
