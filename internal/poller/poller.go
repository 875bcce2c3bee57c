// Package poller refreshes device state from a telemetry source on an
// interval and on demand.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/device"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
	"github.com/QzDevz/TrashBin-IoT/internal/telemetry"
)

// StateStore is the part of the store the poller drives.
type StateStore interface {
	Snapshot() store.Snapshot
	Dispatch(action domain.Action) store.Snapshot
}

// Observer receives the outcome of every refresh cycle.
type Observer interface {
	ObserveRefresh(d time.Duration, err error)
}

// Hook runs after a successful refresh with the resulting snapshot.
type Hook func(store.Snapshot)

type nopObserver struct{}

func (nopObserver) ObserveRefresh(time.Duration, error) {}

type Poller struct {
	store     StateStore
	source    telemetry.Source
	interval  time.Duration
	refreshCh chan struct{}
	observer  Observer
	hooks     []Hook
	logger    *slog.Logger

	// mu serializes refresh cycles; ownsError marks an error message set
	// by a failed cycle so only the poller clears it again.
	mu        sync.Mutex
	ownsError bool
}

type Option func(*Poller)

func WithObserver(o Observer) Option {
	return func(p *Poller) {
		if o != nil {
			p.observer = o
		}
	}
}

func WithRefreshHook(h Hook) Option {
	return func(p *Poller) {
		if h != nil {
			p.hooks = append(p.hooks, h)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func New(st StateStore, source telemetry.Source, interval time.Duration, opts ...Option) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	p := &Poller{
		store:     st,
		source:    source,
		interval:  interval,
		refreshCh: make(chan struct{}, 1),
		observer:  nopObserver{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TriggerRefresh requests an immediate cycle. Requests made while one is
// already pending are coalesced.
func (p *Poller) TriggerRefresh() {
	select {
	case p.refreshCh <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled. Interval cycles only run while
// settings.device.autoConnect is on; triggered cycles always run.
func (p *Poller) Run(ctx context.Context) {
	for {
		timer := time.NewTimer(p.interval)
		manual := false
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-p.refreshCh:
			timer.Stop()
			manual = true
		case <-timer.C:
		}
		if !manual && !p.store.Snapshot().Settings.Device.AutoConnect {
			p.logger.Debug("refresh skipped; auto connect disabled")
			continue
		}
		if err := p.RefreshOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("refresh failed", "err", err)
		}
	}
}

// RefreshOnce performs one cycle: loading on, fetch with retries, apply the
// reading or record the failure, loading off.
func (p *Poller) RefreshOnce(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	before := p.store.Snapshot()
	p.store.Dispatch(device.SetLoading{Loading: true})

	start := time.Now()
	reading, attempts, err := p.fetch(ctx, before.Settings.Device)
	p.observer.ObserveRefresh(time.Since(start), err)

	if err != nil {
		msg := fmt.Sprintf("device unreachable after %d attempt(s): %v", attempts, err)
		p.store.Dispatch(device.SetError{Message: &msg})
		p.ownsError = true
		if before.Device.IsConnected {
			p.store.Dispatch(device.SetConnection{Connected: false})
		}
		p.store.Dispatch(device.SetLoading{Loading: false})
		return fmt.Errorf("refresh: %w", err)
	}

	if !before.Device.IsConnected {
		p.store.Dispatch(device.SetConnection{Connected: true})
	}
	p.store.Dispatch(device.UpdateStatus{Patch: reading.Status})
	if reading.Sensors != nil {
		p.store.Dispatch(device.UpdateSensors{Patch: *reading.Sensors})
	}
	if p.ownsError {
		p.store.Dispatch(device.SetError{})
		p.ownsError = false
	}
	after := p.store.Dispatch(device.SetLoading{Loading: false})

	p.logger.Debug("refresh applied", "attempts", attempts, "trash_level", after.Device.Status.TrashLevel, "lid_open", after.Device.Status.LidOpen)
	for _, hook := range p.hooks {
		hook(after)
	}
	return nil
}

func (p *Poller) fetch(ctx context.Context, policy model.DevicePolicy) (telemetry.Reading, int, error) {
	attempts := max(policy.RetryAttempts, 0) + 1
	timeout := time.Duration(max(policy.ConnectionTimeoutMs, 1)) * time.Millisecond

	var lastErr error
	for i := 1; i <= attempts; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		reading, err := p.source.Fetch(attemptCtx)
		cancel()
		if err == nil {
			return reading, i, nil
		}
		lastErr = err
		if ctx.Err() != nil || errors.Is(err, telemetry.ErrSourceClosed) {
			return telemetry.Reading{}, i, err
		}
		p.logger.Warn("telemetry fetch failed", "attempt", i, "attempts", attempts, "err", err)
	}
	return telemetry.Reading{}, attempts, lastErr
}
