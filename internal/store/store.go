package store

import "context"

// Message represents a persisted chat message.
type Message struct {
	ID   int64
	Text string
}

// MessageStore is the durable, append-only log owned by a single room.
type MessageStore interface {
	// InitSchema creates the message table if it does not exist yet.
	// It is safe to call on every room instantiation.
	InitSchema(ctx context.Context) error

	// Append inserts a new message and returns the identifier assigned by storage.
	Append(ctx context.Context, text *string) (int64, error)

	// ListAll returns every message in ascending id order.
	ListAll(ctx context.Context) ([]Message, error)

	// Clear deletes all messages.
	Clear(ctx context.Context) error

	// Close closes the underlying database connection.
	Close() error
}

// Opener opens the message store for the room identified by key.
// The same key must always resolve to the same durable storage.
type Opener func(ctx context.Context, key string) (MessageStore, error)
