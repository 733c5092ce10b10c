package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/core"
)

// RoomHandlers provides plain HTTP access to a room's log.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListMessages returns the log as plain text, one message per line.
// GET /rooms/:room/messages
func (h *RoomHandlers) ListMessages(c *gin.Context) {
	room := c.Param("room")

	msgs, err := h.hub.Messages(c.Request.Context(), room)
	if err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.Text)
	}
	c.String(http.StatusOK, strings.Join(lines, "\n"))
}

// WriteMessage appends the "message" parameter and echoes it to connected
// sockets. An empty or missing message is accepted and ignored.
// GET|POST /rooms/:room/write?message=...
func (h *RoomHandlers) WriteMessage(c *gin.Context) {
	room := c.Param("room")

	message := c.Query("message")
	if message == "" {
		message = c.PostForm("message")
	}

	if message != "" {
		if _, err := h.hub.Post(c.Request.Context(), room, message); err != nil {
			h.log.Error().Err(err).Str("room", room).Msg("failed to write message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
	}

	c.String(http.StatusOK, "Message received")
}
