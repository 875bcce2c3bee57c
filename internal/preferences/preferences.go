// Package preferences imports user settings from a YAML file and keeps
// them applied when the file changes.
package preferences

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/settings"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

// File is the on-disk preference document. Absent keys leave the current
// setting untouched.
type File struct {
	Theme         *string                     `yaml:"theme"`
	Language      *string                     `yaml:"language"`
	Notifications *model.NotificationsPatch   `yaml:"notifications"`
	Device        *model.DevicePolicyPatch    `yaml:"device"`
	Analytics     *model.AnalyticsPolicyPatch `yaml:"analytics"`
	Units         *model.UnitsPatch           `yaml:"units"`
}

// Parse decodes a preference document, rejecting unknown keys.
func Parse(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("parse preferences: %w", err)
	}
	return f, nil
}

// Load reads and parses the document at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return Parse(data)
}

// Actions lists the settings transitions that apply f.
func (f File) Actions() []domain.Action {
	var out []domain.Action
	if f.Theme != nil {
		out = append(out, settings.UpdateTheme{Theme: *f.Theme})
	}
	if f.Language != nil {
		out = append(out, settings.UpdateLanguage{Language: *f.Language})
	}
	if f.Notifications != nil {
		out = append(out, settings.UpdateNotifications{Patch: *f.Notifications})
	}
	if f.Device != nil {
		out = append(out, settings.UpdateDeviceSettings{Patch: *f.Device})
	}
	if f.Analytics != nil {
		out = append(out, settings.UpdateAnalyticsSettings{Patch: *f.Analytics})
	}
	if f.Units != nil {
		out = append(out, settings.UpdateUnits{Patch: *f.Units})
	}
	return out
}

// Apply dispatches every transition of f and returns the final snapshot.
func Apply(st interface {
	Dispatch(domain.Action) store.Snapshot
	Snapshot() store.Snapshot
}, f File) store.Snapshot {
	actions := f.Actions()
	if len(actions) == 0 {
		return st.Snapshot()
	}
	var snap store.Snapshot
	for _, a := range actions {
		snap = st.Dispatch(a)
	}
	return snap
}
