package preferences

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QzDevz/TrashBin-IoT/internal/domain/settings"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

const sample = `
theme: dark
notifications:
  lid_open: false
device:
  retry_attempts: 5
  connection_timeout_ms: 2500
analytics:
  data_retention_days: 14
`

func TestParseAndApplyPartialDocument(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Len(t, f.Actions(), 4)

	st := store.New()
	snap := Apply(st, f)
	assert.Equal(t, "dark", snap.Settings.Theme)
	assert.False(t, snap.Settings.Notifications.LidOpen)
	assert.True(t, snap.Settings.Notifications.TrashFull)
	assert.Equal(t, 5, snap.Settings.Device.RetryAttempts)
	assert.Equal(t, 2500, snap.Settings.Device.ConnectionTimeoutMs)
	assert.True(t, snap.Settings.Device.AutoConnect)
	assert.Equal(t, 14, snap.Settings.Analytics.DataRetentionDays)
	assert.Equal(t, "en", snap.Settings.Language)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("theme: dark\nvolume: 11\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("device:\n  retry_attempts: lots\n"))
	assert.Error(t, err)
}

func TestParseEmptyDocument(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, f.Actions())

	st := store.New()
	assert.Equal(t, settings.Defaults(), Apply(st, f).Settings)
}

func TestWatcherAppliesChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preferences.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: dark\n"), 0o644))

	st := store.New()
	w, err := NewWatcher(path, st, 10*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool { return st.Snapshot().Settings.Theme == "dark" }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("theme: light\nlanguage: fr\n"), 0o644))
	require.Eventually(t, func() bool { return st.Snapshot().Settings.Language == "fr" }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "light", st.Snapshot().Settings.Theme)
}

func TestWatcherMissingFileIsFine(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "absent.yaml"), store.New(), time.Millisecond, nil)
	require.NoError(t, err)
	defer w.watcher.Close()
	assert.NoError(t, w.Reload())
}
