package store

import (
	"fmt"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/analytics"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/device"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/settings"
)

// Snapshot is the full state of all three domains at one instant.
type Snapshot struct {
	Device    device.State    `json:"device"`
	Analytics analytics.State `json:"analytics"`
	Settings  settings.State  `json:"settings"`
}

// Initial returns the snapshot of a freshly constructed store.
func Initial() Snapshot {
	return Snapshot{
		Device:    device.Initial(),
		Analytics: analytics.Initial(),
		Settings:  settings.Defaults(),
	}
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Device:    s.Device.Clone(),
		Analytics: s.Analytics.Clone(),
		Settings:  s.Settings,
	}
}

// Domain returns the slice registered under name.
func (s Snapshot) Domain(name string) (any, error) {
	switch name {
	case device.Name:
		return s.Device, nil
	case analytics.Name:
		return s.Analytics, nil
	case settings.Name:
		return s.Settings, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, name)
	}
}

// TypeHydrate replaces the whole state with a persisted snapshot.
const TypeHydrate = "store/hydrate"

// Hydrate restores a snapshot produced by an earlier process. The shape is
// repaired, numeric fields are clamped into range and transient loading and
// error flags are cleared.
type Hydrate struct {
	Snapshot Snapshot
}

func (Hydrate) Type() string { return TypeHydrate }

func hydrate(s Snapshot) Snapshot {
	out := s.Clone()
	out.Device = out.Device.Normalize()
	out.Device.IsLoading = false
	out.Device.Error = nil
	out.Analytics = out.Analytics.Normalize()
	out.Analytics.IsLoading = false
	out.Analytics.Error = nil
	out.Settings = out.Settings.Normalize()
	return out
}

func reduce(s Snapshot, action domain.Action, env domain.Env) (Snapshot, bool) {
	if h, ok := action.(Hydrate); ok {
		return hydrate(h.Snapshot), true
	}
	if next, ok := device.Reduce(s.Device, action, env); ok {
		s.Device = next
		return s, true
	}
	if next, ok := analytics.Reduce(s.Analytics, action, env); ok {
		s.Analytics = next
		return s, true
	}
	if next, ok := settings.Reduce(s.Settings, action, env); ok {
		s.Settings = next
		return s, true
	}
	return s, false
}
