package model

import "time"

const (
	// TrashLevelMin is the lowest fill percentage a status can report.
	TrashLevelMin = 0
	// TrashLevelMax is the highest fill percentage a status can report.
	TrashLevelMax = 100
	// TrashLevelFull is the level at which the receptacle is considered full.
	TrashLevelFull = 70
	// TrashLevelHalf is the level at which the receptacle is considered half full.
	TrashLevelHalf = 30
)

// DeviceInfo is static identity reported at pairing time.
type DeviceInfo struct {
	Name            string `json:"name"`
	IP              string `json:"ip"`
	MAC             string `json:"mac"`
	FirmwareVersion string `json:"firmware"`
}

// DeviceInfoPatch carries the subset of DeviceInfo fields to change.
type DeviceInfoPatch struct {
	Name            *string `json:"name,omitempty"`
	IP              *string `json:"ip,omitempty"`
	MAC             *string `json:"mac,omitempty"`
	FirmwareVersion *string `json:"firmware,omitempty"`
}

// Merge returns info with every field present in p applied.
func (i DeviceInfo) Merge(p DeviceInfoPatch) DeviceInfo {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.IP != nil {
		i.IP = *p.IP
	}
	if p.MAC != nil {
		i.MAC = *p.MAC
	}
	if p.FirmwareVersion != nil {
		i.FirmwareVersion = *p.FirmwareVersion
	}
	return i
}

// DeviceStatus is the live operational state of the receptacle.
type DeviceStatus struct {
	LidOpen    bool       `json:"lidOpen"`
	TrashLevel int        `json:"trashLevel"`
	LastUpdate *time.Time `json:"lastUpdate"`
}

// StatusPatch carries the subset of DeviceStatus fields reported by telemetry.
type StatusPatch struct {
	LidOpen    *bool `json:"lidOpen,omitempty"`
	TrashLevel *int  `json:"trashLevel,omitempty"`
}

// IsEmpty reports whether the patch changes no field.
func (p StatusPatch) IsEmpty() bool {
	return p.LidOpen == nil && p.TrashLevel == nil
}

// Merge applies p and stamps LastUpdate with now. LastUpdate always moves
// forward: a clock that did not advance yields the previous value plus 1ns.
func (s DeviceStatus) Merge(p StatusPatch, now time.Time) DeviceStatus {
	if p.LidOpen != nil {
		s.LidOpen = *p.LidOpen
	}
	if p.TrashLevel != nil {
		s.TrashLevel = ClampTrashLevel(*p.TrashLevel)
	}
	stamp := now.UTC()
	if s.LastUpdate != nil && !stamp.After(*s.LastUpdate) {
		stamp = s.LastUpdate.Add(time.Nanosecond)
	}
	s.LastUpdate = &stamp
	return s
}

// Clone returns a copy that shares no pointers with s.
func (s DeviceStatus) Clone() DeviceStatus {
	if s.LastUpdate != nil {
		ts := *s.LastUpdate
		s.LastUpdate = &ts
	}
	return s
}

// SensorReading is the latest raw sensor sample. Only one is retained.
type SensorReading struct {
	HandDetected bool    `json:"handDetected"`
	Distance     float64 `json:"distance"`
}

// SensorPatch carries the subset of SensorReading fields to change.
type SensorPatch struct {
	HandDetected *bool    `json:"handDetected,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
}

// Merge returns r with every field present in p applied.
func (r SensorReading) Merge(p SensorPatch) SensorReading {
	if p.HandDetected != nil {
		r.HandDetected = *p.HandDetected
	}
	if p.Distance != nil {
		r.Distance = ClampNonNegative(*p.Distance)
	}
	return r
}

// FillCategory names the fill band of a trash level.
type FillCategory string

const (
	FillEmpty    FillCategory = "empty"
	FillHalfFull FillCategory = "half_full"
	FillFull     FillCategory = "full"
)

// CategorizeLevel maps a trash level onto its fill band.
func CategorizeLevel(level int) FillCategory {
	switch {
	case level < TrashLevelHalf:
		return FillEmpty
	case level < TrashLevelFull:
		return FillHalfFull
	default:
		return FillFull
	}
}

// ClampTrashLevel bounds level to [TrashLevelMin, TrashLevelMax].
func ClampTrashLevel(level int) int {
	if level < TrashLevelMin {
		return TrashLevelMin
	}
	if level > TrashLevelMax {
		return TrashLevelMax
	}
	return level
}

// ClampNonNegative replaces negative values with zero.
func ClampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
