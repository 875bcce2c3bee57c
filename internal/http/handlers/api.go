package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/model"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

// StateStore is the dispatch and read surface of the store.
type StateStore interface {
	Snapshot() store.Snapshot
	Dispatch(action domain.Action) store.Snapshot
}

// ActionDecoder turns wire envelopes into typed actions.
type ActionDecoder interface {
	Decode(env store.Envelope) (domain.Action, error)
	Descriptors() []domain.Descriptor
}

// Poller triggers an asynchronous telemetry refresh.
type Poller interface {
	TriggerRefresh()
}

// Insights recomputes the analytics aggregates.
type Insights interface {
	Recompute(ctx context.Context) (store.Snapshot, error)
}

// Archive lists archived usage entries, newest first.
type Archive interface {
	ListArchive(ctx context.Context, limit int) ([]model.UsageEntry, error)
}

// Streamer upgrades a request to a push stream.
type Streamer interface {
	Serve(w http.ResponseWriter, r *http.Request)
}

// Deps groups the collaborators served over HTTP. Archive and Streamer
// may be nil.
type Deps struct {
	Store    StateStore
	Actions  ActionDecoder
	Poller   Poller
	Insights Insights
	Archive  Archive
	Streamer Streamer
	Logger   *slog.Logger
}

// API groups HTTP handlers and dependencies.
type API struct {
	store    StateStore
	actions  ActionDecoder
	poller   Poller
	insights Insights
	archive  Archive
	streamer Streamer
	logger   *slog.Logger
}

// New creates HTTP handlers with explicit dependencies.
func New(deps Deps) *API {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		store:    deps.Store,
		actions:  deps.Actions,
		poller:   deps.Poller,
		insights: deps.Insights,
		archive:  deps.Archive,
		streamer: deps.Streamer,
		logger:   logger,
	}
}

// Logger returns request logger used by HTTP middleware.
func (a *API) Logger() *slog.Logger {
	return a.logger
}

// Health reports liveness and device connectivity.
func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	snap := a.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "connected": snap.Device.IsConnected})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
