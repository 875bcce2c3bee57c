package analytics

import (
	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
)

// Reduce applies action to state. It reports false for actions owned by
// another domain, leaving state unchanged.
func Reduce(state State, action domain.Action, env domain.Env) (State, bool) {
	switch a := action.(type) {
	case AddUsageEntry:
		state.DailyUsage = appendEntry(state.DailyUsage, newEntry(a, env))
		state.WeeklyStats.TotalOpens++
	case UpdateWeeklyStats:
		state.WeeklyStats = state.WeeklyStats.Merge(a.Patch)
	case UpdateMonthlyReport:
		state.MonthlyReport = state.MonthlyReport.Merge(a.Patch)
	case SetLoading:
		state.IsLoading = a.Loading
	case SetError:
		state.Error = domain.CloneMessage(a.Message)
	case Reset:
		return Initial(), true
	default:
		return state, false
	}
	return state, true
}

func newEntry(a AddUsageEntry, env domain.Env) model.UsageEntry {
	entry := model.UsageEntry{
		Timestamp:  env.Now.UTC(),
		Action:     a.Action,
		Duration:   model.ClampNonNegative(a.Duration),
		TrashLevel: model.ClampTrashLevel(a.TrashLevel),
	}
	if env.NewID != nil {
		entry.ID = env.NewID()
	}
	return entry
}

// appendEntry never writes into the backing array of history, so slices
// handed out by earlier snapshots stay intact.
func appendEntry(history []model.UsageEntry, entry model.UsageEntry) []model.UsageEntry {
	keep := history
	if len(keep) >= HistoryLimit {
		keep = keep[len(keep)-HistoryLimit+1:]
	}
	out := make([]model.UsageEntry, 0, len(keep)+1)
	out = append(out, keep...)
	return append(out, entry)
}
