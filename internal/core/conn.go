package core

import "context"

// CloseReason is the reason string a room always closes sockets with.
const CloseReason = "room closing connection"

// Conn is a client socket as seen by the core layer.
// Implementations must be comparable (pointer receivers) so they can key a set.
type Conn interface {
	// ID returns a process-unique identifier used for logging.
	ID() string
	// Send writes one text frame to the peer.
	Send(ctx context.Context, payload []byte) error
	// Close closes the socket with the given status code and reason.
	Close(code int, reason string) error
}
