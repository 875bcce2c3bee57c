package analytics

import (
	"encoding/json"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
)

const (
	TypeAddUsageEntry       = "analytics/addUsageEntry"
	TypeUpdateWeeklyStats   = "analytics/updateWeeklyStats"
	TypeUpdateMonthlyReport = "analytics/updateMonthlyReport"
	TypeSetLoading          = "analytics/setLoading"
	TypeSetError            = "analytics/setError"
	TypeReset               = "analytics/reset"
)

// AddUsageEntry appends one entry stamped by the store clock and bumps the
// weekly open counter by one.
type AddUsageEntry struct {
	Action     model.UsageAction `json:"action"`
	Duration   float64           `json:"duration,omitempty"`
	TrashLevel int               `json:"trashLevel,omitempty"`
}

func (AddUsageEntry) Type() string { return TypeAddUsageEntry }

type UpdateWeeklyStats struct {
	Patch model.WeeklyStatsPatch
}

func (UpdateWeeklyStats) Type() string { return TypeUpdateWeeklyStats }

type UpdateMonthlyReport struct {
	Patch model.MonthlyReportPatch
}

func (UpdateMonthlyReport) Type() string { return TypeUpdateMonthlyReport }

type SetLoading struct {
	Loading bool
}

func (SetLoading) Type() string { return TypeSetLoading }

// SetError replaces the error message. A nil Message clears it.
type SetError struct {
	Message *string
}

func (SetError) Type() string { return TypeSetError }

type Reset struct{}

func (Reset) Type() string { return TypeReset }

// Descriptors lists the analytics transitions with their payload decoders.
func Descriptors() []domain.Descriptor {
	return []domain.Descriptor{
		{
			Type:        TypeAddUsageEntry,
			Domain:      Name,
			Description: "payload: {action, duration?, trashLevel?}",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var entry AddUsageEntry
				if err := domain.DecodeRequired(payload, &entry); err != nil {
					return nil, err
				}
				if entry.Action == "" {
					return nil, domain.ErrInvalidPayload
				}
				return entry, nil
			},
		},
		{
			Type:        TypeUpdateWeeklyStats,
			Domain:      Name,
			Description: "payload: partial {totalOpens, averageLevel, peakHours}",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var patch model.WeeklyStatsPatch
				if err := domain.DecodeStrict(payload, &patch); err != nil {
					return nil, err
				}
				return UpdateWeeklyStats{Patch: patch}, nil
			},
		},
		{
			Type:        TypeUpdateMonthlyReport,
			Domain:      Name,
			Description: "payload: partial {totalOpens, averageFillTime, mostActiveDay}",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var patch model.MonthlyReportPatch
				if err := domain.DecodeStrict(payload, &patch); err != nil {
					return nil, err
				}
				return UpdateMonthlyReport{Patch: patch}, nil
			},
		},
		{
			Type:        TypeSetLoading,
			Domain:      Name,
			Description: "payload: boolean",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var loading bool
				if err := domain.DecodeRequired(payload, &loading); err != nil {
					return nil, err
				}
				return SetLoading{Loading: loading}, nil
			},
		},
		{
			Type:        TypeSetError,
			Domain:      Name,
			Description: "payload: message string or null",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				msg, err := domain.OptionalMessage(payload)
				if err != nil {
					return nil, err
				}
				return SetError{Message: msg}, nil
			},
		},
		{
			Type:        TypeReset,
			Domain:      Name,
			Description: "no payload; empties history and aggregates",
			Decode: func(json.RawMessage) (domain.Action, error) {
				return Reset{}, nil
			},
		},
	}
}
