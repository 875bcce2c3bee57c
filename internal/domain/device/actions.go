package device

import (
	"encoding/json"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
)

const (
	TypeSetConnection = "device/setConnection"
	TypeSetDeviceInfo = "device/setDeviceInfo"
	TypeUpdateStatus  = "device/updateStatus"
	TypeUpdateSensors = "device/updateSensors"
	TypeSetLoading    = "device/setLoading"
	TypeSetError      = "device/setError"
	TypeReset         = "device/reset"
)

// SetConnection replaces the connectivity flag.
type SetConnection struct {
	Connected bool
}

func (SetConnection) Type() string { return TypeSetConnection }

// SetDeviceInfo merges identity fields.
type SetDeviceInfo struct {
	Patch model.DeviceInfoPatch
}

func (SetDeviceInfo) Type() string { return TypeSetDeviceInfo }

// UpdateStatus merges live status fields and refreshes LastUpdate.
type UpdateStatus struct {
	Patch model.StatusPatch
}

func (UpdateStatus) Type() string { return TypeUpdateStatus }

// UpdateSensors merges the latest sensor reading.
type UpdateSensors struct {
	Patch model.SensorPatch
}

func (UpdateSensors) Type() string { return TypeUpdateSensors }

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

// Descriptors lists the device transitions with their payload decoders.
func Descriptors() []domain.Descriptor {
	return []domain.Descriptor{
		{
			Type:        TypeSetConnection,
			Domain:      Name,
			Description: "payload: boolean connectivity flag",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var connected bool
				if err := domain.DecodeRequired(payload, &connected); err != nil {
					return nil, err
				}
				return SetConnection{Connected: connected}, nil
			},
		},
		{
			Type:        TypeSetDeviceInfo,
			Domain:      Name,
			Description: "payload: partial {name, ip, mac, firmware}",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var patch model.DeviceInfoPatch
				if err := domain.DecodeStrict(payload, &patch); err != nil {
					return nil, err
				}
				return SetDeviceInfo{Patch: patch}, nil
			},
		},
		{
			Type:        TypeUpdateStatus,
			Domain:      Name,
			Description: "payload: partial {lidOpen, trashLevel}",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var patch model.StatusPatch
				if err := domain.DecodeStrict(payload, &patch); err != nil {
					return nil, err
				}
				return UpdateStatus{Patch: patch}, nil
			},
		},
		{
			Type:        TypeUpdateSensors,
			Domain:      Name,
			Description: "payload: partial {handDetected, distance}",
			Decode: func(payload json.RawMessage) (domain.Action, error) {
				var patch model.SensorPatch
				if err := domain.DecodeStrict(payload, &patch); err != nil {
					return nil, err
				}
				return UpdateSensors{Patch: patch}, nil
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
			Description: "no payload; restores defaults",
			Decode: func(json.RawMessage) (domain.Action, error) {
				return Reset{}, nil
			},
		},
	}
}
