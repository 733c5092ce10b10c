package core

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandUnrecognized is a payload that matched no command; it is dropped.
	CommandUnrecognized CommandKind = iota
	// CommandRequestFullSync asks for the whole message log.
	CommandRequestFullSync
	// CommandClearLog wipes the message log.
	CommandClearLog
	// CommandSendMessage appends a chat line and echoes it to the room.
	CommandSendMessage
)

func (k CommandKind) String() string {
	switch k {
	case CommandRequestFullSync:
		return "full_sync"
	case CommandClearLog:
		return "clear"
	case CommandSendMessage:
		return "message"
	default:
		return "unrecognized"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	// Raw is the inbound payload exactly as received.
	Raw []byte
	// Text is the message body for CommandSendMessage; nil means JSON null.
	Text *string
}

// ParseCommand classifies an inbound payload by field presence.
// A field only has to be present: {"connected": false} is still a full sync.
// On malformed input the command is CommandUnrecognized and the parse error
// is returned for logging only.
func ParseCommand(payload []byte) (Command, error) {
	cmd := Command{Kind: CommandUnrecognized, Raw: payload}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return cmd, fmt.Errorf("parse payload: %w", err)
	}

	if _, ok := fields[proto.FieldConnected]; ok {
		cmd.Kind = CommandRequestFullSync
		return cmd, nil
	}
	if _, ok := fields[proto.FieldClear]; ok {
		cmd.Kind = CommandClearLog
		return cmd, nil
	}
	if raw, ok := fields[proto.FieldMessage]; ok {
		cmd.Kind = CommandSendMessage
		cmd.Text = messageText(raw)
		return cmd, nil
	}

	return cmd, nil
}

// messageText turns the raw "message" value into storable text.
// Strings are unquoted, null stays nil and anything else keeps its JSON form.
func messageText(raw json.RawMessage) *string {
	if string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	s = string(raw)
	return &s
}
