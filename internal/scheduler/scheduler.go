// Package scheduler runs tagged periodic jobs.
package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Scheduler keeps at most one job per tag
type Scheduler struct {
	cron   *gocron.Scheduler
	logger *zap.Logger
	mu     sync.Mutex // gocron builds jobs through shared scheduler state
}

// New creates a scheduler running in UTC
func New(logger *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &Scheduler{
		cron:   s,
		logger: logger,
	}
}

// Start runs scheduled jobs in the background
func (s *Scheduler) Start() {
	s.cron.StartAsync()
}

// Stop halts every job
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Every runs fn every interval under tag, replacing any job holding the tag.
// The first run happens one interval from now and runs never overlap.
func (s *Scheduler) Every(tag string, interval time.Duration, fn func()) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s for job %s", interval, tag)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(tag)
	if _, err := s.cron.Every(interval).Tag(tag).SingletonMode().WaitForSchedule().Do(fn); err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", tag, err)
	}
	return nil
}

// Cancel removes the job holding tag; unknown tags are ignored
func (s *Scheduler) Cancel(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(tag)
}

// Len returns the number of scheduled jobs
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron.Len()
}

func (s *Scheduler) remove(tag string) {
	err := s.cron.RemoveByTag(tag)
	if err != nil && !errors.Is(err, gocron.ErrJobNotFoundWithTag) {
		s.logger.Warn("failed to remove job", zap.String("tag", tag), zap.Error(err))
	}
}
