// Package telemetry provides the device readings consumed by the poller.
package telemetry

import (
	"context"
	"errors"

	"github.com/QzDevz/TrashBin-IoT/internal/model"
)

// ErrSourceClosed is returned by Fetch once a source has shut down.
var ErrSourceClosed = errors.New("telemetry source closed")

// Reading is one partial report from the device.
type Reading struct {
	Status  model.StatusPatch  `json:"status"`
	Sensors *model.SensorPatch `json:"sensors,omitempty"`
}

// Source produces device readings on demand.
type Source interface {
	Fetch(ctx context.Context) (Reading, error)
}
