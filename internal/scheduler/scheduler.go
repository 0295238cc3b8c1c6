package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/sensor-feed/internal/sensor"
)

// Reloader re-ingests the dataset. store.DatasetCache implements it.
type Reloader interface {
	Reload(ctx context.Context) *sensor.Dataset
}

// Scheduler periodically reloads the sensor dataset from its source.
type Scheduler struct {
	scheduler *gocron.Scheduler
	reloader  Reloader
	interval  time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
}

// New creates a new Scheduler. timeout bounds each reload.
func New(reloader Reloader, interval, timeout time.Duration, logger zerolog.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		reloader:  reloader,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the reload job and starts the underlying scheduler. A
// non-positive interval disables periodic reloads.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info().Msg("reload interval not set; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().WaitForSchedule().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		ds := s.reloader.Reload(ctx)
		s.logger.Info().
			Uint64("generation", ds.Generation).
			Int("records", ds.Len()).
			Stringer("layout", ds.Layout).
			Msg("scheduled reload completed")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
