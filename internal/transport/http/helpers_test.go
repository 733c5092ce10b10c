package http

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/store/sqlite"
)

// startTestServer runs the full router over a hub backed by temp-dir SQLite files.
func startTestServer(t *testing.T, opts core.HubOptions, tweak func(*config.Config)) (*httptest.Server, *core.Hub) {
	t.Helper()

	logger := zerolog.Nop()
	hub := core.NewHub(sqlite.NewOpener(filepath.Join(t.TempDir(), "rooms")), opts, &logger)
	t.Cleanup(func() { _ = hub.Close() })

	cfg := config.Default()
	cfg.Addr = ":0"
	if tweak != nil {
		tweak(&cfg)
	}

	server := NewServer(hub, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, hub
}

func dialRoom(ctx context.Context, t *testing.T, ts *httptest.Server, room string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/rooms/" + room + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func send(ctx context.Context, t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(payload)))
}

func recv(ctx context.Context, t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageText, typ)
	return string(data)
}

// syncOnto registers conn with the room and returns the current log.
func syncOnto(ctx context.Context, t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	send(ctx, t, conn, `{"connected":true}`)
	return recv(ctx, t, conn)
}
