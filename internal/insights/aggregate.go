// Package insights derives the weekly and monthly aggregates from the usage
// log and feeds them back into the analytics domain.
package insights

import (
	"time"

	"github.com/QzDevz/TrashBin-IoT/internal/model"
)

const (
	weekWindow  = 7 * 24 * time.Hour
	monthDays   = 30
	hoursPerDay = 24
)

// Weekly is the recomputed part of the weekly stats. TotalOpens is absent:
// the analytics domain counts it on append.
type Weekly struct {
	AverageLevel float64
	PeakHours    []int
}

// ComputeWeekly averages the fill level of entries from the last seven days
// and picks the hours of day with the most lid openings.
func ComputeWeekly(history []model.UsageEntry, now time.Time) Weekly {
	since := now.Add(-weekWindow)
	var sum, n int
	var perHour [hoursPerDay]int
	for _, e := range history {
		if e.Timestamp.Before(since) || e.Timestamp.After(now) {
			continue
		}
		sum += e.TrashLevel
		n++
		if e.Action == model.UsageLidOpened {
			perHour[e.Timestamp.In(now.Location()).Hour()]++
		}
	}

	out := Weekly{PeakHours: []int{}}
	if n > 0 {
		out.AverageLevel = float64(sum) / float64(n)
	}
	best := 0
	for _, c := range perHour {
		best = max(best, c)
	}
	if best == 0 {
		return out
	}
	for hour, c := range perHour {
		if c == best {
			out.PeakHours = append(out.PeakHours, hour)
		}
	}
	return out
}

// ComputeMonthly builds the monthly report over the last min(30, retention)
// days. AverageFillTime is the mean number of hours the bin took to go from
// empty to full; MostActiveDay is the weekday with the most
// openings, empty when there were none.
func ComputeMonthly(history []model.UsageEntry, now time.Time, retentionDays int) model.MonthlyReport {
	days := min(monthDays, max(retentionDays, 1))
	since := now.AddDate(0, 0, -days)

	var report model.MonthlyReport
	var perDay [7]int
	var fills []time.Duration
	var emptySince *time.Time

	for _, e := range history {
		if e.Timestamp.Before(since) || e.Timestamp.After(now) {
			continue
		}
		if e.Action == model.UsageLidOpened {
			report.TotalOpens++
			perDay[e.Timestamp.In(now.Location()).Weekday()]++
		}
		switch model.CategorizeLevel(e.TrashLevel) {
		case model.FillEmpty:
			if emptySince == nil {
				ts := e.Timestamp
				emptySince = &ts
			}
		case model.FillFull:
			if emptySince != nil {
				fills = append(fills, e.Timestamp.Sub(*emptySince))
				emptySince = nil
			}
		}
	}

	if len(fills) > 0 {
		var total time.Duration
		for _, d := range fills {
			total += d
		}
		report.AverageFillTime = total.Hours() / float64(len(fills))
	}

	best := 0
	for day, c := range perDay {
		if c > best {
			best = c
			report.MostActiveDay = time.Weekday(day).String()
		}
	}
	return report
}
