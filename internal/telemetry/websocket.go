package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/QzDevz/TrashBin-IoT/internal/model"
)

const (
	readTimeout = 120 * time.Second
	maxBackoff  = 20 * time.Second
)

// frame is the JSON object the device pushes on every state change.
type frame struct {
	LidOpen    *bool              `json:"lidOpen"`
	TrashLevel *int               `json:"trashLevel"`
	Sensors    *model.SensorPatch `json:"sensors"`
}

// WebsocketSource keeps a session to a device endpoint. The device only
// pushes on change, so Fetch answers with the last frame of the live
// session. Run owns the connection and reconnects with exponential backoff.
type WebsocketSource struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger

	mu     sync.Mutex
	latest *Reading
	ready  chan struct{}
	done   chan struct{}
	once   sync.Once
}

func NewWebsocketSource(rawURL string, logger *slog.Logger) *WebsocketSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebsocketSource{
		url:    strings.TrimSuffix(rawURL, "/"),
		dialer: websocket.DefaultDialer,
		logger: logger,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Fetch returns the last frame of the current session. It waits only while
// no session is up or the session has not delivered a frame yet.
func (w *WebsocketSource) Fetch(ctx context.Context) (Reading, error) {
	for {
		w.mu.Lock()
		if w.latest != nil {
			r := *w.latest
			w.mu.Unlock()
			return r, nil
		}
		ready := w.ready
		w.mu.Unlock()

		select {
		case <-w.done:
			return Reading{}, ErrSourceClosed
		default:
		}
		select {
		case <-ready:
		case <-w.done:
			return Reading{}, ErrSourceClosed
		case <-ctx.Done():
			return Reading{}, ctx.Err()
		}
	}
}

// Run blocks until ctx is cancelled. Fetch reports ErrSourceClosed afterwards.
func (w *WebsocketSource) Run(ctx context.Context) {
	defer w.once.Do(func() { close(w.done) })

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		connected, err := w.runSession(ctx)
		w.reset()
		if err != nil && ctx.Err() == nil {
			w.logger.Warn("telemetry websocket disconnected", "url", w.url, "err", err)
		}
		if connected {
			backoff = time.Second
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

func (w *WebsocketSource) runSession(ctx context.Context) (bool, error) {
	wsURL, err := toWebsocketURL(w.url)
	if err != nil {
		return false, err
	}
	conn, _, err := w.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	w.logger.Info("telemetry websocket connected", "url", wsURL)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return true, err
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		reading, ok := decodeFrame(msg)
		if !ok {
			w.logger.Debug("telemetry frame ignored", "body", string(msg))
			continue
		}
		w.publish(reading)
	}
}

// publish makes r the answer to every Fetch until the next frame or the end
// of the session.
func (w *WebsocketSource) publish(r Reading) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.latest == nil {
		close(w.ready)
	}
	w.latest = &r
}

// reset drops the cached frame once a session ends.
func (w *WebsocketSource) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.latest != nil {
		w.latest = nil
		w.ready = make(chan struct{})
	}
}

func decodeFrame(body []byte) (Reading, bool) {
	var f frame
	if err := json.Unmarshal(body, &f); err != nil {
		return Reading{}, false
	}
	if f.LidOpen == nil && f.TrashLevel == nil && f.Sensors == nil {
		return Reading{}, false
	}
	return Reading{
		Status:  model.StatusPatch{LidOpen: f.LidOpen, TrashLevel: f.TrashLevel},
		Sensors: f.Sensors,
	}, true
}

func toWebsocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String(), nil
}
