package poller

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Scheduler drives coordinator ticks. Every job runs once at start and then
// on its own interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *zap.Logger
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{scheduler: s, logger: logger}
}

// Every schedules fn under name.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) error {
	if interval <= 0 {
		return fmt.Errorf("schedule %s: interval must be positive", name)
	}
	if _, err := s.scheduler.Every(interval).Tag(name).Do(fn); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.logger.Info("poll scheduled", zap.String("domain", name), zap.Duration("interval", interval))
	return nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop halts future ticks. It does not stop coordinators.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	return s.scheduler.Len()
}
