package settings

import (
	"encoding/json"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
)

const (
	TypeUpdateTheme             = "settings/updateTheme"
	TypeUpdateNotifications     = "settings/updateNotifications"
	TypeUpdateDeviceSettings    = "settings/updateDeviceSettings"
	TypeUpdateAnalyticsSettings = "settings/updateAnalyticsSettings"
	TypeUpdateLanguage          = "settings/updateLanguage"
	TypeUpdateUnits             = "settings/updateUnits"
	TypeReset                   = "settings/reset"
)

type UpdateTheme struct {
	Theme string
}

func (UpdateTheme) Type() string { return TypeUpdateTheme }

type UpdateNotifications struct {
	Patch model.NotificationsPatch
}

func (UpdateNotifications) Type() string { return TypeUpdateNotifications }

type UpdateDeviceSettings struct {
	Patch model.DevicePolicyPatch
}

func (UpdateDeviceSettings) Type() string { return TypeUpdateDeviceSettings }

type UpdateAnalyticsSettings struct {
	Patch model.AnalyticsPolicyPatch
}

func (UpdateAnalyticsSettings) Type() string { return TypeUpdateAnalyticsSettings }

type UpdateLanguage struct {
	Language string
}

func (UpdateLanguage) Type() string { return TypeUpdateLanguage }

type UpdateUnits struct {
	Patch model.UnitsPatch
}

func (UpdateUnits) Type() string { return TypeUpdateUnits }

type Reset struct{}

func (Reset) Type() string { return TypeReset }

// Descriptors lists the settings transitions with their payload decoders.
func Descriptors() []domain.Descriptor {
	return []domain.Descriptor{
		{
			Type:        TypeUpdateTheme,
			Domain:      Name,
			Description: "payload: theme name string",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var theme string
				if err := domain.DecodeRequired(payload, &theme); err != nil {
					return nil, err
				}
				return UpdateTheme{Theme: theme}, nil
			},
		},
		{
			Type:        TypeUpdateNotifications,
			Domain:      Name,
			Description: "payload: partial {enabled, lidOpen, trashFull, deviceOffline}",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var patch model.NotificationsPatch
				if err := domain.DecodeStrict(payload, &patch); err != nil {
					return nil, err
				}
				return UpdateNotifications{Patch: patch}, nil
			},
		},
		{
			Type:        TypeUpdateDeviceSettings,
			Domain:      Name,
			Description: "payload: partial {autoConnect, connectionTimeout, retryAttempts}",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var patch model.DevicePolicyPatch
				if err := domain.DecodeStrict(payload, &patch); err != nil {
					return nil, err
				}
				return UpdateDeviceSettings{Patch: patch}, nil
			},
		},
		{
			Type:        TypeUpdateAnalyticsSettings,
			Domain:      Name,
			Description: "payload: partial {enabled, dataRetention}",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var patch model.AnalyticsPolicyPatch
				if err := domain.DecodeStrict(payload, &patch); err != nil {
					return nil, err
				}
				return UpdateAnalyticsSettings{Patch: patch}, nil
			},
		},
		{
			Type:        TypeUpdateLanguage,
			Domain:      Name,
			Description: "payload: language code string",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var language string
				if err := domain.DecodeRequired(payload, &language); err != nil {
					return nil, err
				}
				return UpdateLanguage{Language: language}, nil
			},
		},
		{
			Type:        TypeUpdateUnits,
			Domain:      Name,
			Description: "payload: partial {distance, temperature}",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var patch model.UnitsPatch
				if err := domain.DecodeStrict(payload, &patch); err != nil {
					return nil, err
				}
				return UpdateUnits{Patch: patch}, nil
			},
		},
		{
			Type:        TypeReset,
			Domain:      Name,
			Description: "no payload; restores factory defaults",
			Decode: func(json.RawMessage) (domain.Action, error) {
				return Reset{}, nil
			},
		},
	}
}
