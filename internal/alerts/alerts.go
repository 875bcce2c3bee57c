// Package alerts raises notifications for lid, fill and connectivity edges
// according to the notification preferences.
package alerts

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/QzDevz/TrashBin-IoT/internal/model"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

type Kind string

const (
	KindLidOpen       Kind = "lid_open"
	KindTrashFull     Kind = "trash_full"
	KindDeviceOffline Kind = "device_offline"
)

// Alert is one raised notification.
type Alert struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Message    string    `json:"message"`
	DeviceName string    `json:"deviceName"`
	TrashLevel int       `json:"trashLevel"`
	At         time.Time `json:"at"`
}

// Notifier receives raised alerts. Notify runs on the store listener path
// and must not block or dispatch.
type Notifier interface {
	Notify(Alert)
}

// NotifierFunc adapts a func to Notifier.
type NotifierFunc func(Alert)

func (f NotifierFunc) Notify(a Alert) { f(a) }

// Evaluate returns the alerts implied by one committed change. Hydration
// never raises alerts.
func Evaluate(c store.Change) []Alert {
	if _, ok := c.Action.(store.Hydrate); ok {
		return nil
	}
	prefs := c.Current.Settings.Notifications
	if !prefs.Enabled {
		return nil
	}

	prev, cur := c.Previous.Device, c.Current.Device
	var kinds []Kind
	if prefs.LidOpen && !prev.Status.LidOpen && cur.Status.LidOpen {
		kinds = append(kinds, KindLidOpen)
	}
	if prefs.TrashFull && prev.Status.TrashLevel < model.TrashLevelFull && cur.Status.TrashLevel >= model.TrashLevelFull {
		kinds = append(kinds, KindTrashFull)
	}
	if prefs.DeviceOffline && prev.IsConnected && !cur.IsConnected {
		kinds = append(kinds, KindDeviceOffline)
	}

	out := make([]Alert, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, Alert{
			Kind:       kind,
			Message:    message(kind, cur.DeviceInfo.Name, cur.Status.TrashLevel),
			DeviceName: cur.DeviceInfo.Name,
			TrashLevel: cur.Status.TrashLevel,
			At:         c.At.UTC(),
		})
	}
	return out
}

func message(kind Kind, name string, level int) string {
	switch kind {
	case KindLidOpen:
		return fmt.Sprintf("%s: lid opened", name)
	case KindTrashFull:
		return fmt.Sprintf("%s is %d%% full", name, level)
	default:
		return fmt.Sprintf("%s went offline", name)
	}
}

// Dispatcher evaluates every change and fans alerts out to notifiers.
type Dispatcher struct {
	notifiers []Notifier
	newID     func() string
	logger    *slog.Logger
}

func NewDispatcher(logger *slog.Logger, notifiers ...Notifier) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{notifiers: notifiers, newID: uuid.NewString, logger: logger}
}

// Attach subscribes the dispatcher to st.
func (d *Dispatcher) Attach(st interface {
	Subscribe(store.Listener) func()
}) func() {
	return st.Subscribe(d.Handle)
}

func (d *Dispatcher) Handle(c store.Change) {
	for _, alert := range Evaluate(c) {
		alert.ID = d.newID()
		d.logger.Info("alert raised", "kind", alert.Kind, "trash_level", alert.TrashLevel)
		for _, n := range d.notifiers {
			n.Notify(alert)
		}
	}
}
