package telemetry

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/QzDevz/TrashBin-IoT/internal/model"
)

// binDepthCM is the distance the lid sensor reports for an empty bin.
const binDepthCM = 60.0

// Simulator fabricates readings after a fixed latency, mimicking a device
// that answers a refresh with a random lid state and fill level.
type Simulator struct {
	latency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator creates a simulator. A nil rng uses a time-seeded generator.
func NewSimulator(latency time.Duration, rng *rand.Rand) *Simulator {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Simulator{latency: latency, rng: rng}
}

func (s *Simulator) Fetch(ctx context.Context) (Reading, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Reading{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Reading{}, err
	}

	s.mu.Lock()
	lidOpen := s.rng.IntN(2) == 1
	level := s.rng.IntN(model.TrashLevelMax + 1)
	s.mu.Unlock()

	distance := binDepthCM * float64(model.TrashLevelMax-level) / model.TrashLevelMax
	return Reading{
		Status: model.StatusPatch{LidOpen: &lidOpen, TrashLevel: &level},
		Sensors: &model.SensorPatch{
			HandDetected: &lidOpen,
			Distance:     &distance,
		},
	}, nil
}
