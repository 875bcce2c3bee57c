package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QzDevz/TrashBin-IoT/internal/domain/analytics"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/device"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/settings"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	var seq int
	s := New(WithClock(clock.Now), WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}))
	return s, clock
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

type unknownAction struct{}

func (unknownAction) Type() string { return "device/explode" }

func TestInitialSnapshot(t *testing.T) {
	s, _ := newTestStore(t)
	snap := s.Snapshot()

	assert.False(t, snap.Device.IsConnected)
	assert.Equal(t, device.DefaultName, snap.Device.DeviceInfo.Name)
	assert.Nil(t, snap.Device.Status.LastUpdate)
	assert.Empty(t, snap.Analytics.DailyUsage)
	assert.Equal(t, settings.Defaults(), snap.Settings)
}

func TestUpdateStatusThroughStore(t *testing.T) {
	s, clock := newTestStore(t)
	snap := s.Dispatch(device.UpdateStatus{Patch: model.StatusPatch{LidOpen: boolPtr(true), TrashLevel: intPtr(80)}})

	require.NotNil(t, snap.Device.Status.LastUpdate)
	assert.True(t, snap.Device.Status.LidOpen)
	assert.Equal(t, 80, snap.Device.Status.TrashLevel)
	assert.Equal(t, clock.Now(), *snap.Device.Status.LastUpdate)
}

func TestMergeSemanticsThroughStore(t *testing.T) {
	s, clock := newTestStore(t)
	first := s.Dispatch(device.UpdateStatus{Patch: model.StatusPatch{LidOpen: boolPtr(true)}})
	clock.Advance(250 * time.Millisecond)
	second := s.Dispatch(device.UpdateStatus{Patch: model.StatusPatch{TrashLevel: intPtr(42)}})

	assert.True(t, second.Device.Status.LidOpen)
	assert.Equal(t, 42, second.Device.Status.TrashLevel)
	assert.True(t, second.Device.Status.LastUpdate.After(*first.Device.Status.LastUpdate))

	// The clock does not move; the stamp still does.
	third := s.Dispatch(device.UpdateStatus{})
	assert.True(t, third.Device.Status.LastUpdate.After(*second.Device.Status.LastUpdate))
}

func TestSnapshotsAreIsolated(t *testing.T) {
	s, _ := newTestStore(t)
	s.Dispatch(analytics.AddUsageEntry{Action: model.UsageLidOpened})
	snap := s.Snapshot()

	snap.Analytics.DailyUsage[0].Action = "tampered"
	snap.Settings.Theme = "neon"

	fresh := s.Snapshot()
	assert.Equal(t, model.UsageLidOpened, fresh.Analytics.DailyUsage[0].Action)
	assert.Equal(t, "light", fresh.Settings.Theme)
}

func TestUnknownActionIgnored(t *testing.T) {
	s, _ := newTestStore(t)
	var calls int
	s.Subscribe(func(Change) { calls++ })

	before := s.Snapshot()
	after := s.Dispatch(unknownAction{})
	assert.Equal(t, before, after)
	assert.Zero(t, calls)
}

func TestListenersSeeCommitOrder(t *testing.T) {
	s, _ := newTestStore(t)

	var mu sync.Mutex
	var seen []int
	s.Subscribe(func(c Change) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, c.Current.Analytics.WeeklyStats.TotalOpens)
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(analytics.AddUsageEntry{Action: model.UsageRefresh})
		}()
	}
	wg.Wait()

	require.Len(t, seen, 20)
	for i, total := range seen {
		assert.Equal(t, i+1, total)
	}
}

func TestListenersRunInSubscriptionOrder(t *testing.T) {
	s, _ := newTestStore(t)
	var order []string
	s.Subscribe(func(Change) { order = append(order, "first") })
	unsubscribe := s.Subscribe(func(Change) { order = append(order, "second") })
	s.Subscribe(func(Change) { order = append(order, "third") })

	s.Dispatch(device.SetConnection{Connected: true})
	unsubscribe()
	unsubscribe()
	s.Dispatch(device.SetConnection{Connected: false})

	assert.Equal(t, []string{"first", "second", "third", "first", "third"}, order)
}

func TestChangeCarriesPreviousAndCurrent(t *testing.T) {
	s, _ := newTestStore(t)
	var got Change
	s.Subscribe(func(c Change) { got = c })

	s.Dispatch(device.SetConnection{Connected: true})
	assert.Equal(t, device.TypeSetConnection, got.Action.Type())
	assert.False(t, got.Previous.Device.IsConnected)
	assert.True(t, got.Current.Device.IsConnected)
}

func TestHydrateNormalizes(t *testing.T) {
	s, _ := newTestStore(t)
	msg := "stale error"
	persisted := Initial()
	persisted.Device.IsConnected = true
	persisted.Device.IsLoading = true
	persisted.Device.Error = &msg
	persisted.Analytics.IsLoading = true
	persisted.Analytics.DailyUsage = nil
	persisted.Analytics.WeeklyStats = model.WeeklyStats{TotalOpens: 12}
	persisted.Settings.Device.RetryAttempts = -2
	for i := 0; i < 120; i++ {
		persisted.Analytics.DailyUsage = append(persisted.Analytics.DailyUsage, model.UsageEntry{ID: fmt.Sprintf("e%d", i)})
	}

	snap := s.Hydrate(persisted)
	assert.True(t, snap.Device.IsConnected)
	assert.False(t, snap.Device.IsLoading)
	assert.Nil(t, snap.Device.Error)
	assert.False(t, snap.Analytics.IsLoading)
	assert.Len(t, snap.Analytics.DailyUsage, analytics.HistoryLimit)
	assert.Equal(t, "e20", snap.Analytics.DailyUsage[0].ID)
	assert.Equal(t, 12, snap.Analytics.WeeklyStats.TotalOpens)
	assert.NotNil(t, snap.Analytics.WeeklyStats.PeakHours)
	assert.Equal(t, 0, snap.Settings.Device.RetryAttempts)
}

func TestHydrateClampsRanges(t *testing.T) {
	s, _ := newTestStore(t)
	persisted := Initial()
	persisted.Device.Status.TrashLevel = 180
	persisted.Device.Sensors.Distance = -4
	persisted.Analytics.DailyUsage = []model.UsageEntry{
		{ID: "low", TrashLevel: -5, Duration: -1},
		{ID: "high", TrashLevel: 250, Duration: 3},
	}

	snap := s.Hydrate(persisted)
	assert.Equal(t, 100, snap.Device.Status.TrashLevel)
	assert.Equal(t, 0.0, snap.Device.Sensors.Distance)
	require.Len(t, snap.Analytics.DailyUsage, 2)
	assert.Equal(t, 0, snap.Analytics.DailyUsage[0].TrashLevel)
	assert.Equal(t, 0.0, snap.Analytics.DailyUsage[0].Duration)
	assert.Equal(t, 100, snap.Analytics.DailyUsage[1].TrashLevel)
	assert.Equal(t, 3.0, snap.Analytics.DailyUsage[1].Duration)
	assert.Equal(t, -5, persisted.Analytics.DailyUsage[0].TrashLevel)
}

func TestCrossDomainIndependence(t *testing.T) {
	s, _ := newTestStore(t)
	s.Dispatch(device.UpdateStatus{Patch: model.StatusPatch{TrashLevel: intPtr(65)}})
	snap := s.Dispatch(analytics.Reset{})

	assert.Equal(t, 65, snap.Device.Status.TrashLevel)
	snap = s.Dispatch(device.Reset{})
	assert.Equal(t, settings.Defaults(), snap.Settings)
	assert.Equal(t, device.Initial(), snap.Device)
}

func TestSnapshotDomainLookup(t *testing.T) {
	snap := Initial()
	got, err := snap.Domain("settings")
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), got)

	_, err = snap.Domain("billing")
	assert.ErrorIs(t, err, ErrUnknownDomain)
}
