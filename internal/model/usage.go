package model

import (
	"slices"
	"time"
)

// UsageAction tags a usage entry. Callers may supply tags beyond the
// predefined ones.
type UsageAction string

const (
	UsageLidOpened UsageAction = "lid_opened"
	UsageLidClosed UsageAction = "lid_closed"
	UsageRefresh   UsageAction = "refresh"
)

// UsageEntry is one immutable record of the usage log.
type UsageEntry struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	Action     UsageAction `json:"action"`
	Duration   float64     `json:"duration"`
	TrashLevel int         `json:"trashLevel"`
}

// WeeklyStats is the rolling weekly aggregate.
type WeeklyStats struct {
	TotalOpens   int     `json:"totalOpens"`
	AverageLevel float64 `json:"averageLevel"`
	PeakHours    []int   `json:"peakHours"`
}

// WeeklyStatsPatch carries the subset of WeeklyStats fields to overwrite.
type WeeklyStatsPatch struct {
	TotalOpens   *int     `json:"totalOpens,omitempty"`
	AverageLevel *float64 `json:"averageLevel,omitempty"`
	PeakHours    *[]int   `json:"peakHours,omitempty"`
}

// Merge returns w with every field present in p applied. Peak hours are
// normalized to a sorted set of valid hours of day.
func (w WeeklyStats) Merge(p WeeklyStatsPatch) WeeklyStats {
	if p.TotalOpens != nil {
		w.TotalOpens = max(*p.TotalOpens, 0)
	}
	if p.AverageLevel != nil {
		w.AverageLevel = ClampNonNegative(*p.AverageLevel)
	}
	if p.PeakHours != nil {
		w.PeakHours = NormalizeHours(*p.PeakHours)
	}
	return w
}

// Clone returns a copy that shares no backing array with w.
func (w WeeklyStats) Clone() WeeklyStats {
	w.PeakHours = append(make([]int, 0, len(w.PeakHours)), w.PeakHours...)
	return w
}

// MonthlyReport is the rolling monthly aggregate.
type MonthlyReport struct {
	TotalOpens      int     `json:"totalOpens"`
	AverageFillTime float64 `json:"averageFillTime"`
	MostActiveDay   string  `json:"mostActiveDay"`
}

// MonthlyReportPatch carries the subset of MonthlyReport fields to overwrite.
type MonthlyReportPatch struct {
	TotalOpens      *int     `json:"totalOpens,omitempty"`
	AverageFillTime *float64 `json:"averageFillTime,omitempty"`
	MostActiveDay   *string  `json:"mostActiveDay,omitempty"`
}

// Merge returns m with every field present in p applied.
func (m MonthlyReport) Merge(p MonthlyReportPatch) MonthlyReport {
	if p.TotalOpens != nil {
		m.TotalOpens = max(*p.TotalOpens, 0)
	}
	if p.AverageFillTime != nil {
		m.AverageFillTime = ClampNonNegative(*p.AverageFillTime)
	}
	if p.MostActiveDay != nil {
		m.MostActiveDay = *p.MostActiveDay
	}
	return m
}

// NormalizeHours drops values outside 0..23, removes duplicates and sorts.
func NormalizeHours(hours []int) []int {
	out := make([]int, 0, len(hours))
	for _, h := range hours {
		if h < 0 || h > 23 {
			continue
		}
		out = append(out, h)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
