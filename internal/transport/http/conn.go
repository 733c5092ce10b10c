package http

import (
	"context"

	"github.com/coder/websocket"

	"github.com/vovakirdan/wirechat-relay/internal/utils"
)

// wsConn adapts a WebSocket to core.Conn.
type wsConn struct {
	id string
	ws *websocket.Conn
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{id: utils.NewID(), ws: ws}
}

func (c *wsConn) ID() string {
	return c.id
}

func (c *wsConn) Send(ctx context.Context, payload []byte) error {
	return c.ws.Write(ctx, websocket.MessageText, payload)
}

func (c *wsConn) Close(code int, reason string) error {
	return c.ws.Close(wireStatus(code), reason)
}

// wireStatus maps a close code to one that may be sent in a close frame.
// Codes reserved for local use (no status, abnormal closure, TLS failure)
// and out-of-range codes become a normal closure.
func wireStatus(code int) websocket.StatusCode {
	status := websocket.StatusCode(code)
	switch status {
	case websocket.StatusNoStatusRcvd, websocket.StatusAbnormalClosure, websocket.StatusTLSHandshake:
		return websocket.StatusNormalClosure
	}
	if code < 1000 || code >= 5000 {
		return websocket.StatusNormalClosure
	}
	return status
}
