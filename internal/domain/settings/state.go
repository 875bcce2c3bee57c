// Package settings holds user preferences read by the other domains.
package settings

import "github.com/QzDevz/TrashBin-IoT/internal/model"

// Name is the snapshot key of this domain.
const Name = "settings"

// State is the settings domain slice.
type State struct {
	Theme         string                `json:"theme"`
	Notifications model.Notifications   `json:"notifications"`
	Device        model.DevicePolicy    `json:"device"`
	Analytics     model.AnalyticsPolicy `json:"analytics"`
	Language      string                `json:"language"`
	Units         model.Units           `json:"units"`
}

// Defaults returns the factory preferences restored by Reset.
func Defaults() State {
	return State{
		Theme: "light",
		Notifications: model.Notifications{
			Enabled:       true,
			LidOpen:       true,
			TrashFull:     true,
			DeviceOffline: true,
		},
		Device: model.DevicePolicy{
			AutoConnect:         true,
			ConnectionTimeoutMs: 5000,
			RetryAttempts:       3,
		},
		Analytics: model.AnalyticsPolicy{
			Enabled:           true,
			DataRetentionDays: 30,
		},
		Language: "en",
		Units: model.Units{
			Distance:    "cm",
			Temperature: "celsius",
		},
	}
}

// Normalize clamps fields of a rehydrated slice into their declared ranges.
func (s State) Normalize() State {
	s.Device.ConnectionTimeoutMs = max(s.Device.ConnectionTimeoutMs, 1)
	s.Device.RetryAttempts = max(s.Device.RetryAttempts, 0)
	s.Analytics.DataRetentionDays = max(s.Analytics.DataRetentionDays, 1)
	return s
}
