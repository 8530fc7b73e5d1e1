package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/dkoval/chatterbox-server/internal/auth"
	"github.com/dkoval/chatterbox-server/internal/config"
	"github.com/dkoval/chatterbox-server/internal/core"
	"github.com/dkoval/chatterbox-server/internal/store/sqlite"
)

// testServer wires a full stack (in-memory store, auth, hub, router) behind
// an httptest server.
type testServer struct {
	t   *testing.T
	srv *httptest.Server
	hub *core.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	logger := zerolog.Nop()
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "chatterbox",
		Audience: "chatterbox-client",
		TTL:      time.Hour,
	})

	hub := core.NewHub(st, &logger, 50)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	cfg := config.Default()
	server := NewServer(hub, authService, st, &cfg, &logger)
	srv := httptest.NewServer(server.Handler)

	t.Cleanup(func() {
		cancel()
		srv.Close()
		st.Close()
	})

	return &testServer{t: t, srv: srv, hub: hub}
}

func (s *testServer) postJSON(path, token string, body any) (*stdhttp.Response, []byte) {
	s.t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		s.t.Fatalf("marshal body: %v", err)
	}

	req, err := stdhttp.NewRequest(stdhttp.MethodPost, s.srv.URL+path, bytes.NewReader(payload))
	if err != nil {
		s.t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

func (s *testServer) getJSON(path, token string) (*stdhttp.Response, []byte) {
	s.t.Helper()

	req, err := stdhttp.NewRequest(stdhttp.MethodGet, s.srv.URL+path, nil)
	if err != nil {
		s.t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

func (s *testServer) do(req *stdhttp.Request) (*stdhttp.Response, []byte) {
	s.t.Helper()

	resp, err := stdhttp.DefaultClient.Do(req)
	if err != nil {
		s.t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.t.Fatalf("read response: %v", err)
	}
	return resp, data
}

// signup registers a user and returns its token and ID.
func (s *testServer) signup(firstName, lastName, email string) (token, userID string) {
	s.t.Helper()

	resp, data := s.postJSON("/api/signup", "", SignupRequest{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  "password123",
	})
	if resp.StatusCode != stdhttp.StatusCreated {
		s.t.Fatalf("signup failed: %d %s", resp.StatusCode, data)
	}

	var authResp AuthResponse
	if err := json.Unmarshal(data, &authResp); err != nil {
		s.t.Fatalf("decode signup response: %v", err)
	}
	return authResp.Token, authResp.User.UserID
}

// createRoom creates a room owned by the token's user and returns it.
func (s *testServer) createRoom(token, name string) RoomResponse {
	s.t.Helper()

	resp, data := s.postJSON("/api/rooms", token, CreateRoomRequest{Name: name})
	if resp.StatusCode != stdhttp.StatusCreated {
		s.t.Fatalf("create room failed: %d %s", resp.StatusCode, data)
	}

	var room RoomResponse
	if err := json.Unmarshal(data, &room); err != nil {
		s.t.Fatalf("decode room response: %v", err)
	}
	return room
}

// dialWS opens a websocket connection authenticated with token.
func (s *testServer) dialWS(ctx context.Context, token string) *websocket.Conn {
	s.t.Helper()

	wsURL := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws?token=" + url.QueryEscape(token)
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		s.t.Fatalf("dial ws: %v", err)
	}
	s.t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// frame is a decoded outbound envelope with the payload left raw.
type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func sendFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := wsjson.Write(ctx, conn, map[string]any{"type": typ, "payload": json.RawMessage(raw)}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

// mustFrame reads frames until one of the wanted type arrives.
func mustFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string) frame {
	t.Helper()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			t.Fatalf("read frame (waiting for %q): %v", typ, err)
		}
		if f.Type == typ {
			return f
		}
	}
}

func decodePayload[T any](t *testing.T, f frame) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(f.Payload, &v); err != nil {
		t.Fatalf("decode %q payload: %v", f.Type, err)
	}
	return v
}
