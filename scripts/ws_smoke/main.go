package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/dkoval/chatterbox-server/internal/proto"
)

// Connects with a token, joins a room, sends one message, and waits for the
// echo. Exits non-zero if anything in that path misbehaves.
func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	token := flag.String("token", "", "JWT token")
	room := flag.Int64("room", 1, "room ID")
	flag.Parse()

	if *token == "" {
		return fmt.Errorf("token is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := strings.Replace(*server, "http", "ws", 1) + "/ws?token=" + *token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	send := func(typ string, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		return wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Payload: data})
	}

	if err := send(proto.InboundTypeJoin, proto.JoinPayload{RoomID: *room}); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	probe := fmt.Sprintf("smoke %d", time.Now().UnixNano())
	if err := send(proto.InboundTypeMessage, proto.MessagePayload{Content: probe}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		var outbound struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if outbound.Type == proto.OutboundTypeError {
			var ev proto.ErrorPayload
			_ = json.Unmarshal(outbound.Payload, &ev)
			return fmt.Errorf("server error: %s", ev.Message)
		}

		if outbound.Type == proto.OutboundTypeMessage {
			var ev proto.MessageEvent
			if err := json.Unmarshal(outbound.Payload, &ev); err != nil {
				return fmt.Errorf("unmarshal message: %w", err)
			}
			if ev.Content == probe {
				fmt.Println("ok")
				return nil
			}
		}
	}
}
