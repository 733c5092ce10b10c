package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/metrics"
	"github.com/vovakirdan/wirechat-relay/internal/store"
)

// StatusGoingAway is the close code used when the hub shuts down.
const StatusGoingAway = 1001

var roomNamespace = uuid.MustParse("6f1c2a7e-3b9d-4c5e-8a41-2d7f0e9b5c13")

// RoomKey derives the stable storage key for a room name.
func RoomKey(name string) string {
	return uuid.NewSHA1(roomNamespace, []byte(name)).String()
}

// HubOptions tunes the hub. Zero values select defaults.
type HubOptions struct {
	// WriteTimeout bounds each socket send.
	WriteTimeout time.Duration
	// IdleTimeout is how long a room stays in memory without activity.
	// Zero keeps rooms resident until shutdown.
	IdleTimeout time.Duration
	// Clock drives idle eviction.
	Clock clockwork.Clock
}

// Hub hosts rooms. It instantiates a room lazily on first use, runs every
// operation on a room one at a time, and evicts idle rooms from memory while
// keeping their sockets open. An evicted room is re-created on its next
// operation and re-registers the sockets still associated with it.
type Hub struct {
	mu     sync.Mutex
	cells  map[string]*cell
	closed bool

	open        store.Opener
	bc          *Broadcaster
	clock       clockwork.Clock
	idleTimeout time.Duration
	log         *zerolog.Logger
}

// cell is the host-side record of a room. Its sockets outlive the room instance.
type cell struct {
	mu       sync.Mutex
	name     string
	key      string
	room     *Room
	sockets  map[Conn]struct{}
	lastUsed time.Time
	dead     bool
}

// NewHub creates a new hub backed by stores from open.
func NewHub(open store.Opener, opts HubOptions, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Hub{
		cells:       make(map[string]*cell),
		open:        open,
		bc:          NewBroadcaster(opts.WriteTimeout, logger),
		clock:       clock,
		idleTimeout: opts.IdleTimeout,
		log:         logger,
	}
}

// Run evicts idle rooms until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.idleTimeout <= 0 {
		<-ctx.Done()
		return
	}

	interval := h.idleTimeout / 2
	if interval <= 0 {
		interval = h.idleTimeout
	}
	ticker := h.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := h.EvictIdle(); n > 0 {
				h.log.Debug().Int("rooms", n).Msg("hibernated idle rooms")
			}
		}
	}
}

// Connect associates an upgraded socket with a room and accepts it.
func (h *Hub) Connect(ctx context.Context, name string, c Conn) error {
	cl, err := h.acquire(name)
	if err != nil {
		return err
	}
	defer cl.mu.Unlock()

	room, err := h.wake(ctx, cl)
	if err != nil {
		return err
	}
	if _, exists := cl.sockets[c]; !exists {
		cl.sockets[c] = struct{}{}
		metrics.ConnectionsActive.Inc()
	}
	room.Accept(c)
	return nil
}

// Deliver hands one inbound payload from c to the room.
func (h *Hub) Deliver(ctx context.Context, name string, c Conn, payload []byte) error {
	cl, err := h.acquire(name)
	if err != nil {
		return err
	}
	defer cl.mu.Unlock()

	room, err := h.wake(ctx, cl)
	if err != nil {
		return err
	}
	return room.Handle(ctx, c, payload)
}

// Disconnect handles the close event of c. A hibernating room is not woken up.
// The socket is closed after the room is released so that a slow close
// handshake never holds up the rest of the room.
func (h *Hub) Disconnect(name string, c Conn, code int) {
	if cl, err := h.acquire(name); err == nil {
		if _, exists := cl.sockets[c]; exists {
			delete(cl.sockets, c)
			metrics.ConnectionsActive.Dec()
		}
		if cl.room != nil {
			cl.room.Remove(c, code)
		}
		cl.mu.Unlock()
	}

	if err := c.Close(code, CloseReason); err != nil {
		h.log.Debug().Err(err).Str("room", name).Str("conn_id", c.ID()).Msg("close socket")
	}
}

// Messages returns the room's full log.
func (h *Hub) Messages(ctx context.Context, name string) ([]store.Message, error) {
	cl, err := h.acquire(name)
	if err != nil {
		return nil, err
	}
	defer cl.mu.Unlock()

	room, err := h.wake(ctx, cl)
	if err != nil {
		return nil, err
	}
	return room.Messages(ctx)
}

// Post appends text to the room and echoes it to connected sockets.
func (h *Hub) Post(ctx context.Context, name, text string) (int64, error) {
	cl, err := h.acquire(name)
	if err != nil {
		return 0, err
	}
	defer cl.mu.Unlock()

	room, err := h.wake(ctx, cl)
	if err != nil {
		return 0, err
	}
	return room.Post(ctx, text)
}

// Active reports whether the room is currently instantiated.
func (h *Hub) Active(name string) bool {
	h.mu.Lock()
	cl, ok := h.cells[name]
	h.mu.Unlock()
	if !ok {
		return false
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.room != nil
}

// EvictIdle hibernates rooms idle for at least the idle timeout and forgets
// hibernated rooms without sockets. Returns the number of rooms hibernated.
func (h *Hub) EvictIdle() int {
	h.mu.Lock()
	cells := make([]*cell, 0, len(h.cells))
	for _, cl := range h.cells {
		cells = append(cells, cl)
	}
	h.mu.Unlock()

	now := h.clock.Now()
	evicted := 0
	for _, cl := range cells {
		cl.mu.Lock()
		if cl.room != nil && now.Sub(cl.lastUsed) >= h.idleTimeout {
			h.hibernate(cl)
			evicted++
		}
		cl.mu.Unlock()
		h.forgetIfUnused(cl)
	}
	return evicted
}

// Close hibernates every room and closes every socket with StatusGoingAway.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	cells := h.cells
	h.cells = make(map[string]*cell)
	h.mu.Unlock()

	var sockets []Conn
	for _, cl := range cells {
		cl.mu.Lock()
		if cl.room != nil {
			h.hibernate(cl)
		}
		for c := range cl.sockets {
			sockets = append(sockets, c)
			metrics.ConnectionsActive.Dec()
		}
		cl.sockets = make(map[Conn]struct{})
		cl.dead = true
		cl.mu.Unlock()
	}

	for _, c := range sockets {
		_ = c.Close(StatusGoingAway, CloseReason)
	}
	return nil
}

// acquire returns the locked cell for name, creating it if needed.
func (h *Hub) acquire(name string) (*cell, error) {
	if name == "" {
		return nil, ErrEmptyRoomName
	}
	for {
		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			return nil, ErrHubClosed
		}
		cl, ok := h.cells[name]
		if !ok {
			cl = &cell{
				name:    name,
				key:     RoomKey(name),
				sockets: make(map[Conn]struct{}),
			}
			h.cells[name] = cl
		}
		h.mu.Unlock()

		cl.mu.Lock()
		if cl.dead {
			// Forgotten between lookup and lock; look it up again.
			cl.mu.Unlock()
			continue
		}
		return cl, nil
	}
}

// wake returns the room instance, constructing it if it is hibernating.
// The caller holds cl.mu.
func (h *Hub) wake(ctx context.Context, cl *cell) (*Room, error) {
	cl.lastUsed = h.clock.Now()
	if cl.room != nil {
		return cl.room, nil
	}

	st, err := h.open(ctx, cl.key)
	if err != nil {
		metrics.StorageErrorsTotal.WithLabelValues(OpOpen).Inc()
		return nil, storageError(OpOpen, err)
	}
	room, err := NewRoom(ctx, cl.name, st, h.bc, h.log)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	for c := range cl.sockets {
		room.Accept(c)
	}

	cl.room = room
	metrics.RoomsActive.Inc()
	metrics.RoomInstantiationsTotal.Inc()
	h.log.Info().Str("room", cl.name).Str("key", cl.key).Int("connections", len(cl.sockets)).Msg("room instantiated")
	return room, nil
}

// hibernate drops the room instance but keeps its sockets. The caller holds cl.mu.
func (h *Hub) hibernate(cl *cell) {
	if err := cl.room.Shutdown(); err != nil {
		h.log.Warn().Err(err).Str("room", cl.name).Msg("failed to close room store")
	}
	cl.room = nil
	metrics.RoomsActive.Dec()
	metrics.RoomHibernationsTotal.Inc()
	h.log.Info().Str("room", cl.name).Int("connections", len(cl.sockets)).Msg("room hibernated")
}

func (h *Hub) forgetIfUnused(cl *cell) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.dead || cl.room != nil || len(cl.sockets) > 0 {
		return
	}
	cl.dead = true
	if h.cells[cl.name] == cl {
		delete(h.cells, cl.name)
	}
}
