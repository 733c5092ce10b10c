package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive terminal client for a room",
	Long: `Connects to a room, prints its log and every echoed message.
Type a line to send it; /clear wipes the room log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("url")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runChat(ctx, addr, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	chatCmd.Flags().String("url", "ws://localhost:8080/rooms/general/ws", "room WebSocket URL")
}

func runChat(ctx context.Context, addr string, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	if err := wsjson.Write(ctx, conn, proto.SyncRequest{Connected: true}); err != nil {
		return fmt.Errorf("request log: %w", err)
	}

	fmt.Fprintf(out, "Connected to %s\n", addr)
	fmt.Fprintln(out, "Type messages and press Enter to send, /clear to wipe the log. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readFrames(ctx, conn, out)
	}()

	writeLines(ctx, conn, in)

	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readFrames(ctx context.Context, conn *websocket.Conn, out io.Writer) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			fmt.Fprintf(out, "read error: %v\n", err)
			return
		}
		printFrame(out, data)
	}
}

// printFrame renders a log snapshot or a single echoed message.
func printFrame(out io.Writer, data []byte) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		fmt.Fprintf(out, "%s\n", data)
		return
	}

	if _, ok := fields["chat"]; ok {
		var chatLog proto.ChatLog
		if err := json.Unmarshal(data, &chatLog); err == nil {
			fmt.Fprintf(out, "--- %d message(s) ---\n", len(chatLog.Chat))
			for _, line := range chatLog.Chat {
				fmt.Fprintf(out, "> %s\n", line)
			}
			return
		}
	}
	if raw, ok := fields[proto.FieldMessage]; ok {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			fmt.Fprintf(out, "> %s\n", text)
			return
		}
	}
	fmt.Fprintf(out, "%s\n", data)
}

func writeLines(ctx context.Context, conn *websocket.Conn, in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			var req any = proto.MessageRequest{Message: text}
			if text == "/clear" {
				req = proto.ClearRequest{Clear: true}
			}
			if err := wsjson.Write(ctx, conn, req); err != nil {
				fmt.Fprintf(os.Stderr, "send error: %v\n", err)
				return
			}
		}
	}
}
