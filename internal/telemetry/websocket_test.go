package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocketSourceDeliversFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"lidOpen":true,"trashLevel":73,"sensors":{"distance":12.5}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := NewWebsocketSource(srv.URL, nil)
	go src.Run(ctx)

	fetchCtx, fetchCancel := context.WithTimeout(ctx, 5*time.Second)
	defer fetchCancel()
	r, err := src.Fetch(fetchCtx)
	require.NoError(t, err)
	require.NotNil(t, r.Status.LidOpen)
	assert.True(t, *r.Status.LidOpen)
	assert.Equal(t, 73, *r.Status.TrashLevel)
	require.NotNil(t, r.Sensors)
	assert.Equal(t, 12.5, *r.Sensors.Distance)
	assert.Nil(t, r.Sensors.HandDetected)
}

func TestWebsocketSourceClosedAfterRun(t *testing.T) {
	src := NewWebsocketSource("http://127.0.0.1:1", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src.Run(ctx)

	_, err := src.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrSourceClosed)
}

func TestPublishKeepsNewest(t *testing.T) {
	src := NewWebsocketSource("ws://example.invalid", nil)
	for _, body := range []string{`{"trashLevel":10}`, `{"trashLevel":20}`, `{"trashLevel":30}`} {
		r, ok := decodeFrame([]byte(body))
		require.True(t, ok)
		src.publish(r)
	}

	for range 2 {
		got, err := src.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 30, *got.Status.TrashLevel)
	}
}

func TestFetchRepeatsLastFrameWhileDeviceIdle(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"lidOpen":false,"trashLevel":40}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := NewWebsocketSource(srv.URL, nil)
	go src.Run(ctx)

	first, err := fetchWithin(src, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 40, *first.Status.TrashLevel)

	for range 3 {
		r, err := fetchWithin(src, 100*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 40, *r.Status.TrashLevel)
	}
}

func TestFetchWaitsAgainAfterSessionEnds(t *testing.T) {
	src := NewWebsocketSource("ws://example.invalid", nil)
	r, ok := decodeFrame([]byte(`{"trashLevel":55}`))
	require.True(t, ok)
	src.publish(r)
	src.reset()

	_, err := fetchWithin(src, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	src.publish(r)
	got, err := fetchWithin(src, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 55, *got.Status.TrashLevel)
}

func TestReconnectBackoffResetsAfterSession(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var sessions atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		sessions.Add(1)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"trashLevel":5}`))
		_ = conn.Close()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := NewWebsocketSource(srv.URL, nil)
	go src.Run(ctx)

	// Without the reset the fourth dial would come after 1+2+4 seconds.
	assert.Eventually(t, func() bool { return sessions.Load() >= 4 }, 6*time.Second, 50*time.Millisecond)
}

func fetchWithin(src *WebsocketSource, d time.Duration) (Reading, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return src.Fetch(ctx)
}

func TestDecodeFrameRejectsEmptyObjects(t *testing.T) {
	_, ok := decodeFrame([]byte(`{"battery":80}`))
	assert.False(t, ok)
	_, ok = decodeFrame([]byte(`[1,2]`))
	assert.False(t, ok)
}
