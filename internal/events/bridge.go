package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/QzDevz/TrashBin-IoT/internal/alerts"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/analytics"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

const (
	bridgeQueueSize = 256
	publishTimeout  = 5 * time.Second
)

type message struct {
	topic string
	body  any
}

// Bridge forwards appended usage entries and raised alerts to a Publisher
// from its own goroutine.
type Bridge struct {
	publisher Publisher
	queue     chan message
	logger    *slog.Logger
}

func NewBridge(p Publisher, logger *slog.Logger) *Bridge {
	if p == nil {
		p = NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{publisher: p, queue: make(chan message, bridgeQueueSize), logger: logger}
}

// Attach forwards every usage entry appended to st.
func (b *Bridge) Attach(st interface {
	Subscribe(store.Listener) func()
}) func() {
	return st.Subscribe(func(c store.Change) {
		if _, ok := c.Action.(analytics.AddUsageEntry); !ok {
			return
		}
		history := c.Current.Analytics.DailyUsage
		if len(history) == 0 {
			return
		}
		b.enqueue(message{topic: TopicUsage, body: history[len(history)-1]})
	})
}

// Notify implements alerts.Notifier.
func (b *Bridge) Notify(a alerts.Alert) {
	b.enqueue(message{topic: TopicAlert, body: a})
}

func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-b.queue:
			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			if err := b.publisher.Publish(pubCtx, m.topic, m.body); err != nil {
				b.logger.Warn("event publish failed", "topic", m.topic, "err", err)
			}
			cancel()
		}
	}
}

func (b *Bridge) enqueue(m message) {
	select {
	case b.queue <- m:
	default:
		b.logger.Warn("event dropped; queue full", "topic", m.topic)
	}
}
