package core

import (
	"errors"
	"fmt"
)

// Store operation names used in StorageError.
const (
	OpInitSchema = "init_schema"
	OpAppend     = "append"
	OpListAll    = "list_all"
	OpClear      = "clear"
	OpOpen       = "open"
)

var (
	// ErrHubClosed is returned once the hub has been shut down.
	ErrHubClosed = errors.New("hub closed")
	// ErrEmptyRoomName is returned for an empty room name.
	ErrEmptyRoomName = errors.New("room name is required")
)

// StorageError reports a failed message store operation.
// It is fatal for the command that triggered it and is not retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
