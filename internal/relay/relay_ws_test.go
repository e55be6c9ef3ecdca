package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRelayEndToEnd(t *testing.T) {
	hub := NewHub(time.Hour)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	sender := dial(t, srv)
	receiver := dial(t, srv)

	for _, conn := range []*websocket.Conn{sender, receiver} {
		if err := conn.WriteJSON(map[string]any{"type": "join", "lobbyId": "5"}); err != nil {
			t.Fatalf("write join: %v", err)
		}
	}

	// Give the server's read loops a moment to bind the rooms.
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	if err := sender.WriteJSON(map[string]any{
		"type": "chat", "lobbyId": "5", "payload": map[string]string{"text": "hi"},
	}); err != nil {
		t.Fatalf("write chat: %v", err)
	}

	_ = receiver.SetReadDeadline(time.Now().Add(time.Second))
	var env struct {
		Type    string          `json:"type"`
		LobbyID string          `json:"lobbyId"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := receiver.ReadJSON(&env); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if env.Type != "chat" || env.LobbyID != "5" || string(env.Payload) != `{"text":"hi"}` {
		t.Fatalf("envelope = %+v", env)
	}

	// The sender must not receive its own echo.
	_ = sender.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := sender.ReadMessage(); err == nil {
		t.Fatal("sender received its own broadcast")
	}
}

func TestHeartbeatReapsDeadPeer(t *testing.T) {
	const interval = 40 * time.Millisecond
	hub := NewHub(interval)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	// This peer reads constantly; the default ping handler answers probes.
	live := dial(t, srv)
	go func() {
		for {
			if _, _, err := live.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// This peer never reads, so it never pongs.
	dead := dial(t, srv)
	_ = dead // held open without a read loop

	deadline := time.Now().Add(10 * interval)
	for hub.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(interval / 4)
	}
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("ClientCount = %d, want 1 (dead peer reaped, live peer kept)", got)
	}
}
