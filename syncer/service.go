package syncer

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ErrSyncInProgress is returned when a sync is requested while another one
// is still running. Callers surface it; nothing retries automatically.
var ErrSyncInProgress = errors.New("sync already in progress")

// Runner is implemented by Orchestrator.
type Runner interface {
	RunSync(ctx context.Context, pageCount int) (Summary, error)
}

const (
	stateIdle int32 = iota
	stateRunning
)

// Service is the single authority over the sync run state. Scheduled and
// manual triggers all go through Run, so at most one sync executes at a
// time; an overlapping request fails fast with ErrSyncInProgress instead
// of queueing. State machine: Idle -> Running -> Idle.
type Service struct {
	runner Runner
	state  atomic.Int32
	log    zerolog.Logger
}

func NewService(runner Runner, logger zerolog.Logger) *Service {
	return &Service{
		runner: runner,
		log:    logger.With().Str("component", "sync_service").Logger(),
	}
}

// Run executes one sync if no other is in flight. A started run always runs
// to completion; there is no mid-flight cancellation below this layer.
func (s *Service) Run(ctx context.Context, pageCount int) (Summary, error) {
	if !s.state.CompareAndSwap(stateIdle, stateRunning) {
		s.log.Warn().Int("pages", pageCount).Msg("sync requested while another is running")
		return Summary{}, ErrSyncInProgress
	}
	defer s.state.Store(stateIdle)

	return s.runner.RunSync(ctx, pageCount)
}

// Running reports whether a sync is currently executing.
func (s *Service) Running() bool {
	return s.state.Load() == stateRunning
}
