package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/dkoval/chatterbox-server/internal/proto"
)

const (
	baseBackoff = 500 * time.Millisecond
	maxBackoff  = 30 * time.Second
	// A session that survives this long resets the backoff.
	stableSession = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	room := flag.Int64("room", 1, "room ID to join")
	flag.Parse()

	if *email == "" || *password == "" {
		return errors.New("email and password are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := login(ctx, *server, *email, *password)
	if err != nil {
		return err
	}

	wsURL := strings.Replace(*server, "http", "ws", 1) + "/ws?token=" + token

	fmt.Printf("Connected as %s. Type messages and press Enter to send. Ctrl+C to exit.\n", *email)

	// Reconnect with capped exponential backoff plus jitter; an interrupt
	// cancels the retry loop immediately.
	backoff := baseBackoff
	for {
		started := time.Now()
		err := session(ctx, wsURL, *room)
		if ctx.Err() != nil || err == nil {
			return nil
		}
		if time.Since(started) > stableSession {
			backoff = baseBackoff
		}

		delay := withJitter(backoff)
		log.Printf("disconnected: %v; reconnecting in %s", err, delay.Round(time.Millisecond))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// withJitter spreads a delay by +-20% so reconnecting clients don't stampede.
func withJitter(d time.Duration) time.Duration {
	spread := float64(d) * 0.2
	return d + time.Duration((rand.Float64()*2-1)*spread)
}

func login(ctx context.Context, server, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/api/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login: status %d", resp.StatusCode)
	}

	var auth struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	return auth.Token, nil
}

// session runs one connection until it drops. A nil return means the user
// ended it; an error asks the caller to reconnect.
func session(baseCtx context.Context, wsURL string, room int64) error {
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	joinPayload, err := json.Marshal(proto.JoinPayload{RoomID: room})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Payload: joinPayload}); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	readErr := make(chan error, 1)
	go func() {
		readErr <- readLoop(ctx, conn)
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		close(lines)
	}()

	for {
		select {
		case err := <-readErr:
			return err
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			payload, err := json.Marshal(proto.MessagePayload{Content: line})
			if err != nil {
				return fmt.Errorf("marshal message: %w", err)
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeMessage, Payload: payload}); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}

func readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var outbound struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		switch outbound.Type {
		case proto.OutboundTypeMessage:
			var ev proto.MessageEvent
			if err := json.Unmarshal(outbound.Payload, &ev); err == nil {
				fmt.Printf("[%s] %s: %s\n", ev.Timestamp.Format("15:04:05"), ev.SenderName, ev.Content)
			}
		case proto.OutboundTypeHistory:
			var ev proto.HistoryEvent
			if err := json.Unmarshal(outbound.Payload, &ev); err == nil {
				for _, m := range ev.Messages {
					fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format("15:04:05"), m.SenderID, m.Content)
				}
			}
		case proto.OutboundTypeUserJoined:
			var ev proto.PresenceEvent
			if err := json.Unmarshal(outbound.Payload, &ev); err == nil {
				fmt.Printf("* %s joined\n", ev.UserName)
			}
		case proto.OutboundTypeUserLeft:
			var ev proto.PresenceEvent
			if err := json.Unmarshal(outbound.Payload, &ev); err == nil {
				fmt.Printf("* %s left\n", ev.UserName)
			}
		case proto.OutboundTypeError:
			var ev proto.ErrorPayload
			if err := json.Unmarshal(outbound.Payload, &ev); err == nil {
				fmt.Printf("! error: %s\n", ev.Message)
			}
		}
	}
}
