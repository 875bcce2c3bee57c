package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/QzDevz/TrashBin-IoT/internal/domain/analytics"
)

const maxArchivePage = 1000

// Refresh asks the poller for an immediate telemetry cycle.
func (a *API) Refresh(w http.ResponseWriter, _ *http.Request) {
	a.poller.TriggerRefresh()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

// RecomputeInsights recomputes the aggregates synchronously.
func (a *API) RecomputeInsights(w http.ResponseWriter, r *http.Request) {
	snap, err := a.insights.Recompute(r.Context())
	if err != nil {
		a.logger.Warn("insights recompute degraded", "err", err)
	}
	writeJSON(w, http.StatusOK, snap.Analytics)
}

// ListArchive pages through the long-term usage archive.
func (a *API) ListArchive(w http.ResponseWriter, r *http.Request) {
	if a.archive == nil {
		writeError(w, http.StatusNotFound, "archive_disabled", "Usage archive not configured")
		return
	}
	limit := analytics.HistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(value, maxArchivePage)
	}
	items, err := a.archive.ListArchive(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "archive_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Stream upgrades to a websocket carrying state and alert frames.
func (a *API) Stream(w http.ResponseWriter, r *http.Request) {
	if a.streamer == nil {
		writeError(w, http.StatusNotFound, "stream_disabled", "Stream not configured")
		return
	}
	a.streamer.Serve(w, r)
}
