// Package stream pushes state changes and alerts to websocket clients.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/QzDevz/TrashBin-IoT/internal/alerts"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
)

const (
	FrameState = "state"
	FrameAlert = "alert"

	sendBuffer = 16
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Frame is one message sent to clients.
type Frame struct {
	Type   string          `json:"type"`
	Action string          `json:"action,omitempty"`
	State  *store.Snapshot `json:"state,omitempty"`
	Alert  *alerts.Alert   `json:"alert,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans frames out to every connected client. A client that falls
// behind by more than its send buffer is disconnected.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  *store.Snapshot
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: map[*client]struct{}{},
	}
}

// Attach broadcasts every committed change of st. The hub remembers the
// newest state so a joining client starts from it.
func (h *Hub) Attach(st interface {
	Snapshot() store.Snapshot
	Subscribe(store.Listener) func()
}) func() {
	unsubscribe := st.Subscribe(func(c store.Change) {
		state := c.Current
		h.Broadcast(Frame{Type: FrameState, Action: c.Action.Type(), State: &state})
	})
	snap := st.Snapshot()
	h.mu.Lock()
	if h.latest == nil {
		h.latest = &snap
	}
	h.mu.Unlock()
	return unsubscribe
}

// Notify implements alerts.Notifier.
func (h *Hub) Notify(a alerts.Alert) {
	h.Broadcast(Frame{Type: FrameAlert, Alert: &a})
}

func (h *Hub) Broadcast(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		h.logger.Error("failed to encode stream frame", "type", f.Type, "err", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if f.Type == FrameState && f.State != nil {
		h.latest = f.State
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("stream client too slow; disconnecting", "remote", c.conn.RemoteAddr().String())
			h.removeLocked(c)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve upgrades the request, sends the newest state as the first frame and
// then streams broadcasts until the client goes away. Registration and the
// first frame happen under one lock, so no change slips in between.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.latest != nil {
		first, err := json.Marshal(Frame{Type: FrameState, State: h.latest})
		if err != nil {
			h.mu.Unlock()
			h.logger.Error("failed to encode initial frame", "err", err)
			_ = conn.Close()
			return
		}
		c.send <- first
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) readLoop(c *client) {
	defer func() {
		h.mu.Lock()
		h.removeLocked(c)
		h.mu.Unlock()
	}()
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// removeLocked drops c and closes its send channel exactly once.
func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}
