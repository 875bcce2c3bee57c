package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

const maxDispatchBody = 64 << 10

// GetState returns the full snapshot.
func (a *API) GetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.store.Snapshot())
}

// GetDomain returns one domain slice of the snapshot.
func (a *API) GetDomain(w http.ResponseWriter, _ *http.Request, name string) {
	slice, err := a.store.Snapshot().Domain(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_domain", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, slice)
}

// ListActions describes every accepted transition type.
func (a *API) ListActions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": a.actions.Descriptors()})
}

// Dispatch applies one {type, payload} envelope and returns the new snapshot.
func (a *API) Dispatch(w http.ResponseWriter, r *http.Request) {
	var env store.Envelope
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDispatchBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON envelope")
		return
	}
	action, err := a.actions.Decode(env)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownAction):
			writeError(w, http.StatusBadRequest, "unknown_action", err.Error())
		case errors.Is(err, domain.ErrInvalidPayload):
			writeError(w, http.StatusBadRequest, "invalid_payload", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "dispatch_failed", err.Error())
		}
		return
	}
	snap := a.store.Dispatch(action)
	a.logger.Debug("action dispatched over http", "type", action.Type())
	writeJSON(w, http.StatusOK, snap)
}
