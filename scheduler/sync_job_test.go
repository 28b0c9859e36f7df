package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-pulse/syncer"
)

type fakeSyncRunner struct {
	pages   []int
	summary syncer.Summary
	err     error
}

func (r *fakeSyncRunner) Run(_ context.Context, pageCount int) (syncer.Summary, error) {
	r.pages = append(r.pages, pageCount)
	return r.summary, r.err
}

type capturingNotifier struct {
	jobName string
	summary syncer.Summary
	runErr  error
	calls   int
}

func (n *capturingNotifier) NotifySyncSummary(jobName string, summary syncer.Summary, runErr error) error {
	n.jobName = jobName
	n.summary = summary
	n.runErr = runErr
	n.calls++
	return nil
}

func TestSyncJobPageCounts(t *testing.T) {
	runner := &fakeSyncRunner{}

	partial := NewPartialSyncJob(runner, nil, zerolog.Nop())
	full := NewFullSyncJob(runner, nil, zerolog.Nop())

	require.NoError(t, partial.Run(context.Background()))
	require.NoError(t, full.Run(context.Background()))

	assert.Equal(t, []int{PartialSyncPages, FullSyncPages}, runner.pages)
	assert.Equal(t, "partial_sync", partial.Name())
	assert.Equal(t, "full_sync", full.Name())
}

func TestSyncJobNotifiesSummary(t *testing.T) {
	runner := &fakeSyncRunner{summary: syncer.Summary{ItemsSeen: 7, ItemsUpserted: 6, ItemsFailed: 1}}
	notifier := &capturingNotifier{}

	job := NewPartialSyncJob(runner, notifier, zerolog.Nop())
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, "partial_sync", notifier.jobName)
	assert.Equal(t, 6, notifier.summary.ItemsUpserted)
}

func TestSyncJobSkipsWhenSyncInProgress(t *testing.T) {
	runner := &fakeSyncRunner{err: syncer.ErrSyncInProgress}
	notifier := &capturingNotifier{}

	job := NewFullSyncJob(runner, notifier, zerolog.Nop())
	err := job.Run(context.Background())

	require.ErrorIs(t, err, syncer.ErrSyncInProgress)
	assert.Zero(t, notifier.calls, "a skipped run is not reported")
}

func TestSyncJobReportsRunError(t *testing.T) {
	runErr := errors.New("page 2: connection reset")
	runner := &fakeSyncRunner{summary: syncer.Summary{ItemsSeen: 3, ItemsUpserted: 3}, err: runErr}
	notifier := &capturingNotifier{}

	job := NewPartialSyncJob(runner, notifier, zerolog.Nop())
	err := job.Run(context.Background())

	require.ErrorIs(t, err, runErr)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, runErr, notifier.runErr)
}
