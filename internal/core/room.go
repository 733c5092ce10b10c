package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/metrics"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
	"github.com/vovakirdan/wirechat-relay/internal/store"
)

// Room is one chat room instance: a durable message log plus the sockets
// attached to this instance. Room is not safe for concurrent use; the Hub
// serializes every call on it.
type Room struct {
	name     string
	store    store.MessageStore
	registry *Registry
	bc       *Broadcaster
	log      zerolog.Logger
}

// NewRoom makes the room ready: it ensures the schema exists, which is a no-op
// when the room is re-created over an existing log. The registry starts empty.
func NewRoom(ctx context.Context, name string, st store.MessageStore, bc *Broadcaster, logger *zerolog.Logger) (*Room, error) {
	if err := st.InitSchema(ctx); err != nil {
		metrics.StorageErrorsTotal.WithLabelValues(OpInitSchema).Inc()
		return nil, storageError(OpInitSchema, err)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if bc == nil {
		bc = NewBroadcaster(DefaultWriteTimeout, logger)
	}

	return &Room{
		name:     name,
		store:    st,
		registry: NewRegistry(),
		bc:       bc,
		log:      logger.With().Str("room", name).Logger(),
	}, nil
}

// Name returns the room name.
func (r *Room) Name() string {
	return r.name
}

// Accept registers a freshly upgraded socket.
func (r *Room) Accept(c Conn) {
	if r.registry.Accept(c) {
		r.log.Debug().Str("conn_id", c.ID()).Int("connections", r.registry.Len()).Msg("connection accepted")
	}
}

// Connections returns a snapshot of the registered sockets.
func (r *Room) Connections() []Conn {
	return r.registry.All()
}

// Handle dispatches one inbound payload from c.
// Only storage failures are returned; malformed input is logged and dropped.
// A started command runs to completion even if ctx is cancelled.
func (r *Room) Handle(ctx context.Context, c Conn, payload []byte) error {
	ctx = context.WithoutCancel(ctx)

	cmd, err := ParseCommand(payload)
	if err != nil {
		r.log.Debug().Err(err).Str("conn_id", c.ID()).Msg("unparseable payload")
	}
	metrics.CommandsTotal.WithLabelValues(cmd.Kind.String()).Inc()

	switch cmd.Kind {
	case CommandRequestFullSync:
		return r.fullSync(ctx, c)
	case CommandClearLog:
		return r.clearLog(ctx)
	case CommandSendMessage:
		_, err := r.appendAndEcho(ctx, cmd.Text, cmd.Raw)
		return err
	default:
		r.log.Debug().Str("conn_id", c.ID()).Msg("dropping unrecognized payload")
		return nil
	}
}

// Post appends text on behalf of a non-socket caller and echoes it to the
// room as if a client had sent {"message": text}.
func (r *Room) Post(ctx context.Context, text string) (int64, error) {
	raw, err := encodeJSON(proto.MessageRequest{Message: text})
	if err != nil {
		return 0, fmt.Errorf("encode message: %w", err)
	}
	return r.appendAndEcho(context.WithoutCancel(ctx), &text, raw)
}

// Messages returns the full log.
func (r *Room) Messages(ctx context.Context) ([]store.Message, error) {
	msgs, err := r.store.ListAll(ctx)
	if err != nil {
		metrics.StorageErrorsTotal.WithLabelValues(OpListAll).Inc()
		return nil, storageError(OpListAll, err)
	}
	return msgs, nil
}

// Remove handles a socket close event: the socket leaves the registry and
// receives nothing further. Closing the socket itself is up to the caller.
func (r *Room) Remove(c Conn, code int) {
	if r.registry.Remove(c) {
		r.log.Debug().Str("conn_id", c.ID()).Int("code", code).Int("connections", r.registry.Len()).Msg("connection closed")
	}
}

// Shutdown releases the store handle. Sockets are left untouched.
func (r *Room) Shutdown() error {
	return r.store.Close()
}

func (r *Room) fullSync(ctx context.Context, c Conn) error {
	payload, err := r.snapshot(ctx)
	if err != nil {
		return err
	}
	r.bc.Send(ctx, []Conn{c}, payload)
	return nil
}

func (r *Room) clearLog(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		metrics.StorageErrorsTotal.WithLabelValues(OpClear).Inc()
		return storageError(OpClear, err)
	}
	payload, err := r.snapshot(ctx)
	if err != nil {
		return err
	}
	r.bc.Send(ctx, r.registry.All(), payload)
	return nil
}

func (r *Room) appendAndEcho(ctx context.Context, text *string, raw []byte) (int64, error) {
	id, err := r.store.Append(ctx, text)
	if err != nil {
		metrics.StorageErrorsTotal.WithLabelValues(OpAppend).Inc()
		return 0, storageError(OpAppend, err)
	}
	r.bc.Send(ctx, r.registry.All(), raw)
	return id, nil
}

func (r *Room) snapshot(ctx context.Context) ([]byte, error) {
	msgs, err := r.Messages(ctx)
	if err != nil {
		return nil, err
	}
	chat := make([]string, 0, len(msgs))
	for _, m := range msgs {
		chat = append(chat, m.Text)
	}
	payload, err := encodeJSON(proto.ChatLog{Chat: chat})
	if err != nil {
		return nil, fmt.Errorf("encode chat log: %w", err)
	}
	return payload, nil
}

// encodeJSON marshals v without HTML escaping so text goes out as typed.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
