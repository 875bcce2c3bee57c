// Package analytics holds the analytics state domain: the bounded usage log
// and the weekly/monthly aggregates fed by the recompute collaborator.
package analytics

import (
	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
)

// Name is the snapshot key of this domain.
const Name = "analytics"

// HistoryLimit is the retention cap of the usage log.
const HistoryLimit = 100

// State is the analytics domain slice.
type State struct {
	DailyUsage    []model.UsageEntry  `json:"dailyUsage"`
	WeeklyStats   model.WeeklyStats   `json:"weeklyStats"`
	MonthlyReport model.MonthlyReport `json:"monthlyReport"`
	IsLoading     bool                `json:"isLoading"`
	Error         *string             `json:"error"`
}

// Initial returns the empty state restored by Reset.
func Initial() State {
	return State{
		DailyUsage:  []model.UsageEntry{},
		WeeklyStats: model.WeeklyStats{PeakHours: []int{}},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	s.DailyUsage = append(make([]model.UsageEntry, 0, len(s.DailyUsage)), s.DailyUsage...)
	s.WeeklyStats = s.WeeklyStats.Clone()
	s.Error = domain.CloneMessage(s.Error)
	return s
}

// Normalize repairs a rehydrated slice: nil collections become empty, an
// oversized log keeps only its newest entries and entry values are clamped.
func (s State) Normalize() State {
	if s.DailyUsage == nil {
		s.DailyUsage = []model.UsageEntry{}
	}
	s.DailyUsage = clampEntries(retain(s.DailyUsage))
	if s.WeeklyStats.PeakHours == nil {
		s.WeeklyStats.PeakHours = []int{}
	}
	return s
}

// clampEntries returns a copy of entries with levels and durations in range.
func clampEntries(entries []model.UsageEntry) []model.UsageEntry {
	out := make([]model.UsageEntry, len(entries))
	for i, e := range entries {
		e.TrashLevel = model.ClampTrashLevel(e.TrashLevel)
		e.Duration = model.ClampNonNegative(e.Duration)
		out[i] = e
	}
	return out
}

// retain keeps the newest HistoryLimit entries in insertion order.
func retain(history []model.UsageEntry) []model.UsageEntry {
	if len(history) <= HistoryLimit {
		return history
	}
	out := make([]model.UsageEntry, HistoryLimit)
	copy(out, history[len(history)-HistoryLimit:])
	return out
}
