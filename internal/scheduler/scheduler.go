// Package scheduler runs the periodic maintenance jobs on gocron.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

// Task is one periodic unit of work.
type Task func(ctx context.Context)

// Scheduler wraps a gocron scheduler. Jobs never overlap with themselves.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger

	mu  sync.RWMutex
	ctx context.Context
}

func New(logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, logger: logger, ctx: context.Background()}, nil
}

// Every registers task to run each interval and returns the job ID.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("job %s: interval must be positive", name)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			start := time.Now()
			task(s.context())
			s.logger.Debug("scheduled job finished", "job", name, "duration", time.Since(start))
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create %s job: %w", name, err)
	}
	return job.ID().String(), nil
}

// Start begins running jobs; ctx is handed to every task.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.logger.Info("starting scheduler", "jobs", len(s.scheduler.Jobs()))
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	s.logger.Info("stopping scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// Sweeper deletes archived usage older than a cutoff.
type Sweeper interface {
	SweepArchive(ctx context.Context, before time.Time) (int64, error)
}

// ArchiveSweep returns a task enforcing settings.analytics.dataRetention
// on the usage archive.
func ArchiveSweep(st interface{ Snapshot() store.Snapshot }, sweeper Sweeper, clock func() time.Time, logger *slog.Logger) Task {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context) {
		days := max(st.Snapshot().Settings.Analytics.DataRetentionDays, 1)
		cutoff := clock().AddDate(0, 0, -days)
		removed, err := sweeper.SweepArchive(ctx, cutoff)
		if err != nil {
			logger.Error("archive sweep failed", "err", err)
			return
		}
		if removed > 0 {
			logger.Info("archive swept", "removed", removed, "retention_days", days)
		}
	}
}
