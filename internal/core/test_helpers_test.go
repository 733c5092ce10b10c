package core

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-relay/internal/store"
	"github.com/vovakirdan/wirechat-relay/internal/store/sqlite"
)

// fakeConn records everything the core sends to it.
type fakeConn struct {
	id string

	mu          sync.Mutex
	sent        []string
	sendErr     error
	closed      bool
	closeCode   int
	closeReason string
	closeCount  int
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(_ context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, string(payload))
	return nil
}

func (c *fakeConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	c.closeCount++
	return nil
}

func (c *fakeConn) failWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

func (c *fakeConn) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
}

// panicConn panics on send, like a socket implementation gone wrong.
type panicConn struct{ fakeConn }

func (c *panicConn) Send(context.Context, []byte) error { panic("boom") }

// slowCloseConn blocks in Close until released, like a peer that never
// answers the close handshake.
type slowCloseConn struct {
	fakeConn
	closing chan struct{}
	release chan struct{}
}

func newSlowCloseConn(id string) *slowCloseConn {
	return &slowCloseConn{
		fakeConn: fakeConn{id: id},
		closing:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (c *slowCloseConn) Close(code int, reason string) error {
	close(c.closing)
	<-c.release
	return c.fakeConn.Close(code, reason)
}

// failingStore rejects every operation after schema init.
type failingStore struct {
	err       error
	schemaErr error
	closed    bool
}

var errDiskFull = errors.New("disk full")

func (s *failingStore) InitSchema(context.Context) error { return s.schemaErr }
func (s *failingStore) Append(context.Context, *string) (int64, error) {
	return 0, s.err
}
func (s *failingStore) ListAll(context.Context) ([]store.Message, error) { return nil, s.err }
func (s *failingStore) Clear(context.Context) error                      { return s.err }
func (s *failingStore) Close() error {
	s.closed = true
	return nil
}

func newTestStore(t *testing.T) store.MessageStore {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestRoom(t *testing.T) (*Room, store.MessageStore) {
	t.Helper()

	st := newTestStore(t)
	room, err := NewRoom(context.Background(), "general", st, nil, nil)
	require.NoError(t, err)
	return room, st
}

func newTestOpener(t *testing.T) store.Opener {
	t.Helper()
	return sqlite.NewOpener(filepath.Join(t.TempDir(), "rooms"))
}

func newBenchStore() (store.MessageStore, error) {
	return sqlite.New(":memory:")
}
