package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
)

func envAt(ts time.Time) domain.Env {
	return domain.Env{Now: ts}
}

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }

func TestUpdateStatusMergesAndStamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	state, ok := Reduce(Initial(), UpdateStatus{Patch: model.StatusPatch{
		LidOpen:    boolPtr(true),
		TrashLevel: intPtr(80),
	}}, envAt(now))
	require.True(t, ok)
	assert.True(t, state.Status.LidOpen)
	assert.Equal(t, 80, state.Status.TrashLevel)
	require.NotNil(t, state.Status.LastUpdate)
	assert.Equal(t, now, *state.Status.LastUpdate)

	later := now.Add(time.Second)
	state, _ = Reduce(state, UpdateStatus{Patch: model.StatusPatch{TrashLevel: intPtr(42)}}, envAt(later))
	assert.True(t, state.Status.LidOpen, "lidOpen must survive a partial update")
	assert.Equal(t, 42, state.Status.TrashLevel)
	assert.True(t, state.Status.LastUpdate.After(now))
}

func TestUpdateStatusEmptyPatchStillRefreshesLastUpdate(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	state, _ := Reduce(Initial(), UpdateStatus{}, envAt(now))
	first := *state.Status.LastUpdate

	state, _ = Reduce(state, UpdateStatus{}, envAt(now.Add(time.Minute)))
	assert.Equal(t, now.Add(time.Minute), *state.Status.LastUpdate)
	assert.False(t, state.Status.LidOpen)
	assert.Equal(t, 0, state.Status.TrashLevel)
	assert.True(t, state.Status.LastUpdate.After(first))
}

func TestUpdateStatusLastUpdateMovesForwardOnStalledClock(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	state, _ := Reduce(Initial(), UpdateStatus{}, envAt(now))
	prev := *state.Status.LastUpdate

	state, _ = Reduce(state, UpdateStatus{Patch: model.StatusPatch{TrashLevel: intPtr(10)}}, envAt(now))
	assert.True(t, state.Status.LastUpdate.After(prev))

	state, _ = Reduce(state, UpdateStatus{}, envAt(now.Add(-time.Hour)))
	assert.True(t, state.Status.LastUpdate.After(prev))
}

func TestUpdateStatusClampsTrashLevel(t *testing.T) {
	now := time.Now()
	state, _ := Reduce(Initial(), UpdateStatus{Patch: model.StatusPatch{TrashLevel: intPtr(140)}}, envAt(now))
	assert.Equal(t, 100, state.Status.TrashLevel)

	state, _ = Reduce(state, UpdateStatus{Patch: model.StatusPatch{TrashLevel: intPtr(-3)}}, envAt(now))
	assert.Equal(t, 0, state.Status.TrashLevel)
}

func TestSetConnectionLeavesStatusAndSensors(t *testing.T) {
	now := time.Now()
	distance := 12.5
	state, _ := Reduce(Initial(), SetConnection{Connected: true}, envAt(now))
	state, _ = Reduce(state, UpdateStatus{Patch: model.StatusPatch{LidOpen: boolPtr(true), TrashLevel: intPtr(55)}}, envAt(now))
	state, _ = Reduce(state, UpdateSensors{Patch: model.SensorPatch{HandDetected: boolPtr(true), Distance: &distance}}, envAt(now))
	statusBefore := state.Status
	sensorsBefore := state.Sensors

	state, _ = Reduce(state, SetConnection{Connected: false}, envAt(now.Add(time.Hour)))
	assert.False(t, state.IsConnected)
	assert.Equal(t, statusBefore, state.Status)
	assert.Equal(t, sensorsBefore, state.Sensors)
}

func TestSetDeviceInfoMergesPresentFields(t *testing.T) {
	ip := "192.168.1.40"
	state, _ := Reduce(Initial(), SetDeviceInfo{Patch: model.DeviceInfoPatch{IP: &ip}}, envAt(time.Now()))
	assert.Equal(t, DefaultName, state.DeviceInfo.Name)
	assert.Equal(t, DefaultFirmware, state.DeviceInfo.FirmwareVersion)
	assert.Equal(t, ip, state.DeviceInfo.IP)
	assert.Empty(t, state.DeviceInfo.MAC)
}

func TestUpdateSensorsClampsDistance(t *testing.T) {
	distance := -4.0
	state, _ := Reduce(Initial(), UpdateSensors{Patch: model.SensorPatch{Distance: &distance}}, envAt(time.Now()))
	assert.Equal(t, 0.0, state.Sensors.Distance)
	assert.False(t, state.Sensors.HandDetected)
}

func TestSetErrorIsNotClearedAutomatically(t *testing.T) {
	msg := "device unreachable"
	now := time.Now()
	state, _ := Reduce(Initial(), SetError{Message: &msg}, envAt(now))
	state, _ = Reduce(state, UpdateStatus{Patch: model.StatusPatch{TrashLevel: intPtr(5)}}, envAt(now))
	require.NotNil(t, state.Error)
	assert.Equal(t, msg, *state.Error)

	state, _ = Reduce(state, SetError{}, envAt(now))
	assert.Nil(t, state.Error)
}

func TestResetIsIdempotent(t *testing.T) {
	now := time.Now()
	msg := "boom"
	state, _ := Reduce(Initial(), SetConnection{Connected: true}, envAt(now))
	state, _ = Reduce(state, UpdateStatus{Patch: model.StatusPatch{TrashLevel: intPtr(90)}}, envAt(now))
	state, _ = Reduce(state, SetLoading{Loading: true}, envAt(now))
	state, _ = Reduce(state, SetError{Message: &msg}, envAt(now))

	first, ok := Reduce(state, Reset{}, envAt(now))
	require.True(t, ok)
	second, _ := Reduce(first, Reset{}, envAt(now))
	assert.Equal(t, Initial(), first)
	assert.Equal(t, first, second)
}

func TestReduceIgnoresForeignActions(t *testing.T) {
	state := Initial()
	next, ok := Reduce(state, foreignAction{}, envAt(time.Now()))
	assert.False(t, ok)
	assert.Equal(t, state, next)
}

type foreignAction struct{}

func (foreignAction) Type() string { return "other/thing" }
