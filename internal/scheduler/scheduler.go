package scheduler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron"
)

// jobTimeout leaves headroom over the 20s request bound.
const jobTimeout = 30 * time.Second

// Updater runs a poll when one is due.
type Updater interface {
	MaybeUpdate(ctx context.Context) (bool, error)
}

// Scheduler wakes periodically, like the device leaving low-power sleep,
// and lets the updater decide whether a poll is due.
type Scheduler struct {
	scheduler *gocron.Scheduler
	updater   Updater
	interval  time.Duration
	logger    *log.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, updater Updater, logger *log.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	// A wake tick never overlaps a poll still in flight.
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		updater:   updater,
		interval:  interval,
		logger:    logger.WithPrefix("scheduler"),
	}
}

// Start schedules the wake job and starts the underlying scheduler.
// The first wake runs immediately.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval < time.Second {
		interval = time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.Wake)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Wake runs one wake cycle.
func (s *Scheduler) Wake() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	polled, err := s.updater.MaybeUpdate(ctx)
	switch {
	case err != nil:
		s.logger.Warn("poll failed; will retry", "err", err)
	case polled:
		s.logger.Info("poll completed")
	default:
		s.logger.Debug("no update due")
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
