package http

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/metrics"
)

// WSHandler upgrades HTTP connections and attaches them to rooms.
type WSHandler struct {
	hub             *core.Hub
	maxMessageBytes int64
	ratePerSecond   float64
	rateBurst       int
	log             *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:             hub,
		maxMessageBytes: cfg.MaxMessageBytes,
		ratePerSecond:   cfg.RateLimitPerSecond,
		rateBurst:       cfg.RateLimitBurst,
		log:             logger,
	}
}

// Handle serves GET /rooms/:room/ws.
func (h *WSHandler) Handle(c *gin.Context) {
	room := c.Param("room")
	if !isWebSocketUpgrade(c.Request) {
		c.String(stdhttp.StatusUpgradeRequired, "Expected Upgrade: websocket")
		return
	}

	ws, err := websocket.Accept(newUpgradeWriter(c.Writer), c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("ws accept error")
		return
	}
	if h.maxMessageBytes > 0 {
		ws.SetReadLimit(h.maxMessageBytes)
	}

	conn := newWSConn(ws)
	logger := h.log.With().Str("room", room).Str("conn_id", conn.ID()).Logger()
	ctx := c.Request.Context()

	if err := h.hub.Connect(ctx, room, conn); err != nil {
		logger.Error().Err(err).Msg("attach connection to room")
		_ = ws.Close(websocket.StatusInternalError, "internal error")
		return
	}
	logger.Debug().Msg("ws connected")

	code := h.readLoop(ctx, room, conn, &logger)
	h.hub.Disconnect(room, conn, code)
	logger.Debug().Int("code", code).Msg("ws disconnected")
}

// readLoop dispatches frames in arrival order until the socket fails or closes.
// It returns the close code to report to the room.
func (h *WSHandler) readLoop(ctx context.Context, room string, conn *wsConn, logger *zerolog.Logger) int {
	limiter := newRateLimiter(h.ratePerSecond, h.rateBurst)

	for {
		_, data, err := conn.ws.Read(ctx)
		if err != nil {
			return closeCode(err, logger)
		}

		if !limiter.allow() {
			metrics.InboundDroppedTotal.Inc()
			logger.Warn().Msg("rate limit exceeded, dropping frame")
			continue
		}

		start := time.Now()
		if err := h.hub.Deliver(ctx, room, conn, data); err != nil {
			logger.Error().Err(err).Msg("failed to handle frame")
			return int(websocket.StatusInternalError)
		}
		logger.Debug().Dur("duration", time.Since(start)).Msg("frame handled")
	}
}

// closeCode extracts the peer's close status, or reports an abnormal closure
// when the socket went away without a close frame.
func closeCode(err error, logger *zerolog.Logger) int {
	if status := websocket.CloseStatus(err); status != -1 {
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			logger.Warn().Err(err).Int("code", int(status)).Msg("ws closed with error status")
		}
		return int(status)
	}
	if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
		logger.Warn().Err(err).Msg("ws read failed")
	}
	return int(websocket.StatusAbnormalClosure)
}

// upgradeWriter keeps gin's status bookkeeping but hijacks the underlying
// connection directly: gin refuses to hijack once the 101 header is written.
type upgradeWriter struct {
	gin.ResponseWriter
	hj stdhttp.Hijacker
}

func newUpgradeWriter(w gin.ResponseWriter) stdhttp.ResponseWriter {
	u, ok := w.(interface{ Unwrap() stdhttp.ResponseWriter })
	if !ok {
		return w
	}
	hj, ok := u.Unwrap().(stdhttp.Hijacker)
	if !ok {
		return w
	}
	return upgradeWriter{ResponseWriter: w, hj: hj}
}

func (w upgradeWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.hj.Hijack()
}

func isWebSocketUpgrade(r *stdhttp.Request) bool {
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return false
	}
	for _, v := range strings.Split(r.Header.Get("Connection"), ",") {
		if strings.EqualFold(strings.TrimSpace(v), "upgrade") {
			return true
		}
	}
	return false
}
