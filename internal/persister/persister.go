// Package persister mirrors store changes into the sqlite repository.
package persister

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/QzDevz/TrashBin-IoT/internal/domain/analytics"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

const flushTimeout = 5 * time.Second

type Repository interface {
	SaveSnapshot(ctx context.Context, snap store.Snapshot, at time.Time) error
	AppendArchive(ctx context.Context, entries ...model.UsageEntry) error
}

type StateStore interface {
	Snapshot() store.Snapshot
	Subscribe(listener store.Listener) func()
}

// Persister saves a debounced snapshot after changes and archives every
// appended usage entry.
type Persister struct {
	repo     Repository
	store    StateStore
	debounce time.Duration
	dirty    chan struct{}
	logger   *slog.Logger

	mu      sync.Mutex
	pending []model.UsageEntry
}

func New(repo Repository, st StateStore, debounce time.Duration, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{
		repo:     repo,
		store:    st,
		debounce: debounce,
		dirty:    make(chan struct{}, 1),
		logger:   logger,
	}
}

func (p *Persister) Attach() func() {
	return p.store.Subscribe(p.observe)
}

func (p *Persister) observe(c store.Change) {
	if _, ok := c.Action.(analytics.AddUsageEntry); ok {
		if history := c.Current.Analytics.DailyUsage; len(history) > 0 {
			p.mu.Lock()
			p.pending = append(p.pending, history[len(history)-1])
			p.mu.Unlock()
		}
	}
	select {
	case p.dirty <- struct{}{}:
	default:
	}
}

// Run flushes after each burst of changes and once more on shutdown.
func (p *Persister) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.finalFlush()
			return
		case <-p.dirty:
		}
		if p.debounce > 0 {
			timer := time.NewTimer(p.debounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				p.finalFlush()
				return
			case <-timer.C:
			}
		}
		if err := p.Flush(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("persist state failed", "err", err)
		}
	}
}

func (p *Persister) finalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := p.Flush(ctx); err != nil {
		p.logger.Error("final state flush failed", "err", err)
	}
}

// Flush writes the current snapshot and any pending archive entries.
// Entries that fail to archive stay queued for the next flush.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	var errs []error
	if err := p.repo.SaveSnapshot(ctx, p.store.Snapshot(), time.Now()); err != nil {
		errs = append(errs, err)
	}
	if err := p.repo.AppendArchive(ctx, pending...); err != nil {
		p.mu.Lock()
		p.pending = append(pending, p.pending...)
		p.mu.Unlock()
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
