package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/analytics"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/device"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
)

func TestRegistryDecodesEnvelope(t *testing.T) {
	r := NewRegistry()
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"type":"device/updateStatus","payload":{"trashLevel":42}}`), &env))

	action, err := r.Decode(env)
	require.NoError(t, err)
	update, ok := action.(device.UpdateStatus)
	require.True(t, ok)
	require.NotNil(t, update.Patch.TrashLevel)
	assert.Equal(t, 42, *update.Patch.TrashLevel)
	assert.Nil(t, update.Patch.LidOpen)
}

func TestRegistryRejectsUnknownType(t *testing.T) {
	_, err := NewRegistry().Decode(Envelope{Type: "device/selfDestruct"})
	assert.ErrorIs(t, err, domain.ErrUnknownAction)
}

func TestRegistryRejectsMalformedPayload(t *testing.T) {
	r := NewRegistry()
	_, err := r.Decode(Envelope{Type: analytics.TypeAddUsageEntry, Payload: json.RawMessage(`{"action":"lid_opened","extra":1}`)})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = r.Decode(Envelope{Type: analytics.TypeAddUsageEntry, Payload: json.RawMessage(`{"duration":3}`)})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestRegistryDecodedActionDispatches(t *testing.T) {
	s, _ := newTestStore(t)
	action, err := NewRegistry().Decode(Envelope{
		Type:    analytics.TypeAddUsageEntry,
		Payload: json.RawMessage(`{"action":"lid_closed","duration":4.5,"trashLevel":130}`),
	})
	require.NoError(t, err)

	snap := s.Dispatch(action)
	require.Len(t, snap.Analytics.DailyUsage, 1)
	entry := snap.Analytics.DailyUsage[0]
	assert.Equal(t, model.UsageLidClosed, entry.Action)
	assert.Equal(t, 4.5, entry.Duration)
	assert.Equal(t, 100, entry.TrashLevel)
	assert.Equal(t, "id-1", entry.ID)
}

func TestRegistryDescriptorsSorted(t *testing.T) {
	descriptors := NewRegistry().Descriptors()
	require.Len(t, descriptors, 20)
	for i := 1; i < len(descriptors); i++ {
		assert.Less(t, descriptors[i-1].Type, descriptors[i].Type)
	}
}
