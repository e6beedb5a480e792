// Package testhelpers provides common utilities for exercising the chat
// relay in integration tests: assembling a full relay on an httptest server,
// dialing WebSocket clients, and reading protocol frames with deadlines.
package testhelpers

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/chatrelay/internal/chat"
	"github.com/Tyrowin/chatrelay/internal/moderation"
	"github.com/Tyrowin/chatrelay/internal/server"
)

// Frame is one decoded outbound envelope.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// StartRelay assembles a complete relay (stores, router, controller, hub,
// routes) behind an httptest server and registers cleanup for both the HTTP
// server and the hub.
func StartRelay(t *testing.T, censoredWords ...string) *httptest.Server {
	t.Helper()

	cfg := &server.Config{
		Port:            ":0",
		AllowedOrigins:  "*",
		MaxMessageSize:  4096,
		RateLimitBurst:  1000,
		RateLimitRefill: time.Second,
		CensoredWords:   strings.Join(censoredWords, ","),
		LogLevel:        "ERROR",
	}
	logger := slog.New(slog.DiscardHandler)

	mod, err := moderation.New(cfg.Words(), '*')
	if err != nil {
		t.Fatalf("building moderator: %v", err)
	}

	registry := chat.NewRegistry()
	history := chat.NewHistory()
	hub := server.NewHub(logger)
	router := chat.NewRouter(registry, history, hub, mod, logger)
	hub.SetCore(chat.NewController(registry, router, hub, logger))
	go hub.Run()

	srv := httptest.NewServer(server.Routes(server.NewHandler(hub, cfg, logger)))
	t.Cleanup(func() {
		srv.Close()
		_ = hub.Shutdown(2 * time.Second)
	})
	return srv
}

// Dial opens a WebSocket client against the relay's /ws endpoint.
func Dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://localhost"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dialing %s: %v", wsURL, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// Emit sends one inbound envelope on the connection.
func Emit(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()

	frame, err := json.Marshal(map[string]any{"event": event, "payload": payload})
	if err != nil {
		t.Fatalf("marshaling %s frame: %v", event, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("writing %s frame: %v", event, err)
	}
}

// ReadFrame reads the next outbound envelope, failing the test if none
// arrives within two seconds.
func ReadFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("setting read deadline: %v", err)
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading frame: %v", err)
	}

	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("decoding frame %q: %v", raw, err)
	}
	return frame
}

// ExpectEvent reads the next frame and asserts its event name, returning the
// raw data for further decoding.
func ExpectEvent(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()

	frame := ReadFrame(t, conn)
	if frame.Event != event {
		t.Fatalf("expected event %q, got %q (data %s)", event, frame.Event, frame.Data)
	}
	return frame.Data
}

// ExpectNoFrame asserts that nothing arrives on the connection within the
// timeout.
func ExpectNoFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("setting read deadline: %v", err)
	}
	_, raw, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no frame, got %s", raw)
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return
	}
	t.Fatalf("expected read timeout, got %v", err)
}

// DecodeJSON unmarshals raw frame data into out.
func DecodeJSON(t *testing.T, raw json.RawMessage, out any) {
	t.Helper()
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decoding payload %s: %v", raw, err)
	}
}
