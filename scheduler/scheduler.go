package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// jobTimeout bounds one scheduled run; a full 20-page sync with the
// per-item delay stays well under it.
const jobTimeout = 2 * time.Hour

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron      *cron.Cron
	jobs      map[string]Job
	isRunning bool
	log       zerolog.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(logger zerolog.Logger) *Scheduler {
	log := logger.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
		jobs: make(map[string]Job),
		log:  log,
	}
}

// AddJob adds a job to the scheduler with a cron specification
func (s *Scheduler) AddJob(spec string, job Job) error {
	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	_, err := s.cron.AddFunc(spec, func() {
		s.log.Info().Str("job", name).Msg("starting scheduled job")
		startTime := time.Now()

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if err := job.Run(ctx); err != nil {
			s.log.Error().Err(err).Str("job", name).Msg("scheduled job failed")
		} else {
			s.log.Info().Str("job", name).Dur("took", time.Since(startTime)).Msg("scheduled job completed")
		}
	})

	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}

	s.jobs[name] = job
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	if s.isRunning {
		return
	}
	s.cron.Start()
	s.isRunning = true
	s.log.Info().Msg("scheduler started")
}

// Stop stops the scheduler and waits for in-flight jobs
func (s *Scheduler) Stop() {
	if !s.isRunning {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	s.log.Info().Msg("scheduler stopped")
}

// RunJobNow runs a job immediately outside of schedule
func (s *Scheduler) RunJobNow(name string) error {
	job, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not registered", name)
	}

	s.log.Info().Str("job", name).Msg("manually running job")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	return job.Run(ctx)
}
