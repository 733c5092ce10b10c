package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandPrecedenceAndPresence(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		kind    CommandKind
		wantErr bool
	}{
		{name: "connected true", payload: `{"connected":true}`, kind: CommandRequestFullSync},
		{name: "connected false still syncs", payload: `{"connected":false}`, kind: CommandRequestFullSync},
		{name: "connected null still syncs", payload: `{"connected":null}`, kind: CommandRequestFullSync},
		{name: "clear", payload: `{"clear":true}`, kind: CommandClearLog},
		{name: "clear false still clears", payload: `{"clear":false}`, kind: CommandClearLog},
		{name: "message", payload: `{"message":"hi"}`, kind: CommandSendMessage},
		{name: "connected beats clear", payload: `{"clear":true,"connected":true}`, kind: CommandRequestFullSync},
		{name: "clear beats message", payload: `{"message":"hi","clear":1}`, kind: CommandClearLog},
		{name: "all three", payload: `{"message":"hi","clear":1,"connected":0}`, kind: CommandRequestFullSync},
		{name: "unknown field", payload: `{"hello":"world"}`, kind: CommandUnrecognized},
		{name: "empty object", payload: `{}`, kind: CommandUnrecognized},
		{name: "json null", payload: `null`, kind: CommandUnrecognized},
		{name: "array", payload: `[{"message":"hi"}]`, kind: CommandUnrecognized, wantErr: true},
		{name: "plain text", payload: `hi there`, kind: CommandUnrecognized, wantErr: true},
		{name: "truncated", payload: `{"message":`, kind: CommandUnrecognized, wantErr: true},
		{name: "empty", payload: ``, kind: CommandUnrecognized, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.kind, cmd.Kind)
			assert.Equal(t, tt.payload, string(cmd.Raw))
		})
	}
}

func TestParseCommandMessageText(t *testing.T) {
	tests := []struct {
		payload string
		want    *string
	}{
		{payload: `{"message":"hi"}`, want: strPtr("hi")},
		{payload: `{"message":""}`, want: strPtr("")},
		{payload: `{"message":"café"}`, want: strPtr("café")},
		{payload: `{"message":null}`, want: nil},
		{payload: `{"message":42}`, want: strPtr("42")},
		{payload: `{"message":{"a":1}}`, want: strPtr(`{"a":1}`)},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.payload))
			require.NoError(t, err)
			require.Equal(t, CommandSendMessage, cmd.Kind)
			if tt.want == nil {
				assert.Nil(t, cmd.Text)
				return
			}
			require.NotNil(t, cmd.Text)
			assert.Equal(t, *tt.want, *cmd.Text)
		})
	}
}

func TestCommandKindString(t *testing.T) {
	assert.Equal(t, "full_sync", CommandRequestFullSync.String())
	assert.Equal(t, "clear", CommandClearLog.String())
	assert.Equal(t, "message", CommandSendMessage.String())
	assert.Equal(t, "unrecognized", CommandUnrecognized.String())
}

func strPtr(s string) *string { return &s }
