package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/analytics"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/device"
	"github.com/QzDevz/TrashBin-IoT/internal/domain/settings"
)

// Envelope is the wire form of a transition request.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Registry maps transition type names to payload decoders.
type Registry struct {
	descriptors map[string]domain.Descriptor
}

// NewRegistry creates a registry holding every domain transition.
func NewRegistry() *Registry {
	r := &Registry{descriptors: map[string]domain.Descriptor{}}
	for _, group := range [][]domain.Descriptor{
		device.Descriptors(),
		analytics.Descriptors(),
		settings.Descriptors(),
	} {
		for _, d := range group {
			r.Register(d)
		}
	}
	return r
}

// Register adds or replaces one descriptor.
func (r *Registry) Register(d domain.Descriptor) {
	if d.Type == "" || d.Decode == nil {
		return
	}
	r.descriptors[d.Type] = d
}

// Decode builds the typed action described by env.
func (r *Registry) Decode(env Envelope) (domain.Action, error) {
	name := strings.TrimSpace(env.Type)
	d, ok := r.descriptors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAction, name)
	}
	action, err := d.Decode(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return action, nil
}

// Descriptors returns registered transitions sorted by type.
func (r *Registry) Descriptors() []domain.Descriptor {
	out := make([]domain.Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Type < out[j].Type
	})
	return out
}
