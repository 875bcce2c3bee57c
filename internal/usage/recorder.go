// Package usage turns device status changes into usage log entries.
package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/analytics"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/device"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

const queueSize = 64

// StateStore is the part of the store the recorder needs.
type StateStore interface {
	Dispatch(action domain.Action) store.Snapshot
	Subscribe(listener store.Listener) func()
}

// Recorder watches lid transitions and refresh cycles and appends matching
// usage entries. Entries are dispatched from its own goroutine since store
// listeners may not dispatch.
type Recorder struct {
	store  StateStore
	queue  chan analytics.AddUsageEntry
	logger *slog.Logger

	// openedAt is touched only from the store listener.
	openedAt *time.Time
}

func NewRecorder(st StateStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:  st,
		queue:  make(chan analytics.AddUsageEntry, queueSize),
		logger: logger,
	}
}

// Attach subscribes the recorder to st and returns the unsubscribe func.
func (r *Recorder) Attach() func() {
	return r.store.Subscribe(r.observe)
}

// Run drains queued entries into the store until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-r.queue:
			r.store.Dispatch(entry)
		}
	}
}

// RecordRefresh queues a refresh entry for a completed poll. It is meant
// as a poller hook.
func (r *Recorder) RecordRefresh(snap store.Snapshot) {
	if !snap.Settings.Analytics.Enabled {
		return
	}
	r.enqueue(analytics.AddUsageEntry{
		Action:     model.UsageRefresh,
		TrashLevel: snap.Device.Status.TrashLevel,
	})
}

func (r *Recorder) observe(change store.Change) {
	switch change.Action.(type) {
	case store.Hydrate:
		r.openedAt = nil
		return
	case device.Reset:
		r.openedAt = nil
		return
	case device.UpdateStatus:
	default:
		return
	}

	prev := change.Previous.Device.Status
	cur := change.Current.Device.Status
	if prev.LidOpen == cur.LidOpen {
		return
	}
	enabled := change.Current.Settings.Analytics.Enabled

	if cur.LidOpen {
		at := change.At
		r.openedAt = &at
		if enabled {
			r.enqueue(analytics.AddUsageEntry{Action: model.UsageLidOpened, TrashLevel: cur.TrashLevel})
		}
		return
	}

	var duration float64
	if r.openedAt != nil {
		duration = change.At.Sub(*r.openedAt).Seconds()
	}
	r.openedAt = nil
	if enabled {
		r.enqueue(analytics.AddUsageEntry{Action: model.UsageLidClosed, Duration: duration, TrashLevel: cur.TrashLevel})
	}
}

// enqueue never blocks: the listener path holds the store notify lock and
// the worker needs it to dispatch.
func (r *Recorder) enqueue(entry analytics.AddUsageEntry) {
	select {
	case r.queue <- entry:
	default:
		r.logger.Warn("usage entry dropped; queue full", "action", entry.Action)
	}
}
