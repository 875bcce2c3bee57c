// Package device holds the device state domain: connectivity, identity,
// live status and the latest sensor reading.
package device

import (
	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
)

// Name is the snapshot key of this domain.
const Name = "device"

// DefaultName is the identity a device carries before pairing.
const DefaultName = "Smart Trashcan"

// DefaultFirmware is the firmware version assumed before discovery.
const DefaultFirmware = "1.0.0"

// State is the device domain slice. IsConnected is independent of Status:
// a disconnected device keeps its last known status.
type State struct {
	IsConnected bool                `json:"isConnected"`
	DeviceInfo  model.DeviceInfo    `json:"deviceInfo"`
	Status      model.DeviceStatus  `json:"status"`
	Sensors     model.SensorReading `json:"sensors"`
	IsLoading   bool                `json:"isLoading"`
	Error       *string             `json:"error"`
}

// Initial returns the defaults restored by Reset.
func Initial() State {
	return State{
		DeviceInfo: model.DeviceInfo{
			Name:            DefaultName,
			FirmwareVersion: DefaultFirmware,
		},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	s.Status = s.Status.Clone()
	s.Error = domain.CloneMessage(s.Error)
	return s
}

// Normalize clamps values restored from outside the reducer into their
// valid ranges.
func (s State) Normalize() State {
	s.Status.TrashLevel = model.ClampTrashLevel(s.Status.TrashLevel)
	s.Sensors.Distance = model.ClampNonNegative(s.Sensors.Distance)
	return s
}
