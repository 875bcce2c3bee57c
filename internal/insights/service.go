package insights

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/analytics"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

// StateStore is the part of the store the service drives.
type StateStore interface {
	Snapshot() store.Snapshot
	Dispatch(action domain.Action) store.Snapshot
	Subscribe(listener store.Listener) func()
}

// Archive exposes usage entries older than the in-memory log, oldest first.
type Archive interface {
	ListArchiveSince(ctx context.Context, since time.Time) ([]model.UsageEntry, error)
}

type Service struct {
	store   StateStore
	archive Archive
	clock   func() time.Time
	trigger chan struct{}
	logger  *slog.Logger

	mu        sync.Mutex
	ownsError bool
}

type Option func(*Service)

// WithArchive makes the monthly report read from the long-term archive.
func WithArchive(a Archive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(st StateStore, opts ...Option) *Service {
	s := &Service{
		store:   st,
		clock:   time.Now,
		trigger: make(chan struct{}, 1),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach schedules a recompute after every usage append.
func (s *Service) Attach() func() {
	return s.store.Subscribe(func(c store.Change) {
		if _, ok := c.Action.(analytics.AddUsageEntry); ok {
			s.Trigger()
		}
	})
}

// Trigger requests an asynchronous recompute; pending requests coalesce.
func (s *Service) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run serves Trigger requests until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.trigger:
			if _, err := s.Recompute(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("insights recompute degraded", "err", err)
			}
		}
	}
}

// Recompute derives the aggregates and dispatches them. The weekly
// totalOpens counter is left to the analytics domain. With analytics
// disabled nothing is dispatched.
func (s *Service) Recompute(ctx context.Context) (store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.store.Snapshot()
	policy := snap.Settings.Analytics
	if !policy.Enabled {
		return snap, nil
	}

	now := s.clock()
	s.store.Dispatch(analytics.SetLoading{Loading: true})

	history := snap.Analytics.DailyUsage
	monthly := history
	var archiveErr error
	if s.archive != nil {
		entries, err := s.archive.ListArchiveSince(ctx, now.AddDate(0, 0, -min(monthDays, policy.DataRetentionDays)))
		if err != nil {
			archiveErr = fmt.Errorf("read usage archive: %w", err)
		} else {
			monthly = mergeHistory(entries, history)
		}
	}

	weekly := ComputeWeekly(history, now)
	report := ComputeMonthly(monthly, now, policy.DataRetentionDays)

	s.store.Dispatch(analytics.UpdateWeeklyStats{Patch: model.WeeklyStatsPatch{
		AverageLevel: &weekly.AverageLevel,
		PeakHours:    &weekly.PeakHours,
	}})
	s.store.Dispatch(analytics.UpdateMonthlyReport{Patch: model.MonthlyReportPatch{
		TotalOpens:      &report.TotalOpens,
		AverageFillTime: &report.AverageFillTime,
		MostActiveDay:   &report.MostActiveDay,
	}})

	switch {
	case archiveErr != nil:
		msg := archiveErr.Error()
		s.store.Dispatch(analytics.SetError{Message: &msg})
		s.ownsError = true
	case s.ownsError:
		s.store.Dispatch(analytics.SetError{})
		s.ownsError = false
	}

	out := s.store.Dispatch(analytics.SetLoading{Loading: false})
	s.logger.Debug("insights recomputed",
		"entries", len(history),
		"average_level", weekly.AverageLevel,
		"month_opens", report.TotalOpens,
	)
	return out, archiveErr
}

// mergeHistory joins archived rows with the in-memory history, which may
// hold entries the archive has not received yet. Entries are deduplicated
// by ID and returned in timestamp order.
func mergeHistory(archived, live []model.UsageEntry) []model.UsageEntry {
	seen := make(map[string]struct{}, len(archived))
	out := make([]model.UsageEntry, 0, len(archived)+len(live))
	for _, group := range [][]model.UsageEntry{archived, live} {
		for _, e := range group {
			if e.ID != "" {
				if _, ok := seen[e.ID]; ok {
					continue
				}
				seen[e.ID] = struct{}{}
			}
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b model.UsageEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}
