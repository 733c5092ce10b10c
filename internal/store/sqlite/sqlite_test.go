package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.InitSchema(context.Background()))
	return s
}

func TestInitSchemaIsIdempotentAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "room.db")

	first, err := New(path)
	require.NoError(t, err)
	require.NoError(t, first.InitSchema(ctx))
	_, err = first.Append(ctx, strPtr("hello"))
	require.NoError(t, err)
	require.NoError(t, first.InitSchema(ctx))
	require.NoError(t, first.Close())

	second, err := New(path)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.InitSchema(ctx))

	messages, err := second.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, int64(1), messages[0].ID)
	assert.Equal(t, "hello", messages[0].Text)
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	texts := []string{"one", "two", "three", "four"}
	var last int64
	for _, text := range texts {
		id, err := s.Append(ctx, strPtr(text))
		require.NoError(t, err)
		assert.Greater(t, id, last)
		last = id
	}

	messages, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, messages, len(texts))
	for i, msg := range messages {
		assert.Equal(t, texts[i], msg.Text)
		if i > 0 {
			assert.Greater(t, msg.ID, messages[i-1].ID)
		}
	}
}

func TestListAllNormalizesNullToEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, nil)
	require.NoError(t, err)

	messages, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "", messages[0].Text)
}

func TestListAllOnEmptyTableReturnsEmptySlice(t *testing.T) {
	s := newTestStore(t)

	messages, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestClearRemovesAllRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"a", "b"} {
		_, err := s.Append(ctx, strPtr(text))
		require.NoError(t, err)
	}
	require.NoError(t, s.Clear(ctx))

	messages, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, messages)

	// Clearing an empty log is not an error.
	require.NoError(t, s.Clear(ctx))
}

func TestAppendWithoutSchemaFails(t *testing.T) {
	s, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(`CREATE TABLE unrelated (id INTEGER)`)
		return err
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Append(context.Background(), strPtr("x"))
	assert.Error(t, err)
}

func TestOpenerUsesOneFilePerKey(t *testing.T) {
	ctx := context.Background()
	open := NewOpener(filepath.Join(t.TempDir(), "rooms"))

	a, err := open(ctx, "room-a")
	require.NoError(t, err)
	defer a.Close()
	b, err := open(ctx, "room-b")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.InitSchema(ctx))
	require.NoError(t, b.InitSchema(ctx))

	_, err = a.Append(ctx, strPtr("only in a"))
	require.NoError(t, err)

	inB, err := b.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, inB)
}
