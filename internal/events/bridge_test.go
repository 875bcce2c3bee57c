package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QzDevz/TrashBin-IoT/internal/alerts"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/analytics"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/device"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

type published struct {
	topic string
	body  any
}

type memoryPublisher struct {
	mu   sync.Mutex
	sent []published
}

func (m *memoryPublisher) Publish(_ context.Context, topic string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, published{topic: topic, body: v})
	return nil
}

func (m *memoryPublisher) Close() error { return nil }

func (m *memoryPublisher) Sent() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]published(nil), m.sent...)
}

func TestBridgeForwardsUsageAndAlerts(t *testing.T) {
	st := store.New()
	pub := &memoryPublisher{}
	bridge := NewBridge(pub, nil)
	defer bridge.Attach(st)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bridge.Run(ctx)

	st.Dispatch(device.SetConnection{Connected: true})
	st.Dispatch(analytics.AddUsageEntry{Action: model.UsageLidOpened, TrashLevel: 12})
	bridge.Notify(alerts.Alert{Kind: alerts.KindTrashFull})

	require.Eventually(t, func() bool { return len(pub.Sent()) == 2 }, time.Second, 5*time.Millisecond)
	sent := pub.Sent()
	assert.Equal(t, TopicUsage, sent[0].topic)
	entry, ok := sent[0].body.(model.UsageEntry)
	require.True(t, ok)
	assert.Equal(t, 12, entry.TrashLevel)
	assert.Equal(t, TopicAlert, sent[1].topic)
}

func TestNATSSubject(t *testing.T) {
	p := &NATSPublisher{prefix: "trashcan"}
	assert.Equal(t, "trashcan.usage", p.Subject(TopicUsage))
	assert.Equal(t, "alert", (&NATSPublisher{}).Subject(TopicAlert))
}
