package proto

// Inbound payloads are JSON objects classified by which of these fields is
// present, checked in this order. Values are never inspected for
// classification.
const (
	FieldConnected = "connected"
	FieldClear     = "clear"
	FieldMessage   = "message"
)

// ChatLog is the full log sent on sync and after a clear.
type ChatLog struct {
	Chat []string `json:"chat"`
}

// SyncRequest asks the room for its full log.
type SyncRequest struct {
	Connected bool `json:"connected"`
}

// ClearRequest asks the room to wipe its log.
type ClearRequest struct {
	Clear bool `json:"clear"`
}

// MessageRequest submits a chat line. Rooms echo it back verbatim.
type MessageRequest struct {
	Message string `json:"message"`
}
