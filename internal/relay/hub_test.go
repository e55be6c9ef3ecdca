package relay

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestHub() *Hub {
	return NewHub(time.Hour) // sweeps driven manually in these tests
}

func addClient(h *Hub) *Client {
	c := newClient(h, nil, "test")
	h.Register(c)
	return c
}

// recv pulls one delivered envelope off the client's send buffer.
func recv(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("unmarshal delivered frame: %v", err)
		}
		return env
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no frame delivered")
		return envelope{}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		if ok {
			t.Fatalf("unexpected frame delivered: %s", raw)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastRoomIsolation(t *testing.T) {
	h := newTestHub()
	a := addClient(h)
	b := addClient(h)
	h.JoinRoom(a, "5")
	h.JoinRoom(b, "9")

	h.Broadcast("5", json.RawMessage(`{"text":"hi"}`), nil)

	env := recv(t, a)
	if env.Type != FrameChat || env.LobbyID != "5" || string(env.Payload) != `{"text":"hi"}` {
		t.Fatalf("envelope = %+v", env)
	}
	assertSilent(t, b)
}

func TestBroadcastExcludesSender(t *testing.T) {
	h := newTestHub()
	a := addClient(h)
	b := addClient(h)
	h.JoinRoom(a, "5")
	h.JoinRoom(b, "5")

	h.Broadcast("5", json.RawMessage(`{"text":"hi"}`), a)

	recv(t, b)
	assertSilent(t, a)
}

func TestRejoinOverwritesBinding(t *testing.T) {
	h := newTestHub()
	c := addClient(h)
	h.JoinRoom(c, "5")
	h.JoinRoom(c, "9")

	h.Broadcast("5", json.RawMessage(`1`), nil)
	assertSilent(t, c)

	h.Broadcast("9", json.RawMessage(`2`), nil)
	if env := recv(t, c); env.LobbyID != "9" {
		t.Fatalf("LobbyID = %s, want 9", env.LobbyID)
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	h := newTestHub()
	c := addClient(h)

	h.Unregister(c)
	h.Unregister(c) // must not close the channel twice

	if h.ClientCount() != 0 {
		t.Fatalf("ClientCount = %d, want 0", h.ClientCount())
	}
	if _, ok := <-c.send; ok {
		t.Fatal("send channel should be closed")
	}
}

func TestSweepReapsSilentConnection(t *testing.T) {
	h := newTestHub()
	c := addClient(h)
	h.JoinRoom(c, "5")

	// First sweep clears the flag; the connection survives this round.
	h.sweep()
	if h.ClientCount() != 1 {
		t.Fatalf("ClientCount after first sweep = %d, want 1", h.ClientCount())
	}

	// No pong arrives, so the second sweep reaps it.
	h.sweep()
	if h.ClientCount() != 0 {
		t.Fatalf("ClientCount after second sweep = %d, want 0", h.ClientCount())
	}

	// A reaped connection receives no further broadcasts.
	h.Broadcast("5", json.RawMessage(`1`), nil)
	if _, ok := <-c.send; ok {
		t.Fatal("reaped connection still received a broadcast")
	}
}

func TestSweepSparesPongingConnection(t *testing.T) {
	h := newTestHub()
	c := addClient(h)

	for i := 0; i < 3; i++ {
		h.sweep()
		h.markAlive(c) // simulated pong each cycle
	}
	if h.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", h.ClientCount())
	}
}

func TestHandleFrameJoinAndChat(t *testing.T) {
	h := newTestHub()
	a := addClient(h)
	b := addClient(h)

	a.handleFrame([]byte(`{"type":"join","lobbyId":"5"}`))
	b.handleFrame([]byte(`{"type":"join","lobbyId":5}`)) // numeric form binds the same room

	a.handleFrame([]byte(`{"type":"chat","lobbyId":"5","payload":{"text":"hi"}}`))

	env := recv(t, b)
	if env.LobbyID != "5" || string(env.Payload) != `{"text":"hi"}` {
		t.Fatalf("envelope = %+v", env)
	}
	assertSilent(t, a)
}

func TestChatFromUnboundConnectionDropped(t *testing.T) {
	h := newTestHub()
	a := addClient(h)
	b := addClient(h)
	h.JoinRoom(b, "5")

	a.handleFrame([]byte(`{"type":"chat","lobbyId":"5","payload":{"text":"hi"}}`))
	assertSilent(t, b)
}

func TestMalformedFramesDropped(t *testing.T) {
	h := newTestHub()
	c := addClient(h)
	h.JoinRoom(c, "5")

	for _, raw := range []string{
		`not json`,
		`{}`,
		`{"type":"launch"}`,
		`{"type":"join"}`,
		`{"type":"join","lobbyId":null}`,
	} {
		c.handleFrame([]byte(raw))
	}

	if h.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", h.ClientCount())
	}
	if got := h.RoomOf(c); got != "5" {
		t.Fatalf("room = %q, want unchanged \"5\"", got)
	}
}

func TestFrameRoomID(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"type":"join","lobbyId":"5"}`, "5"},
		{`{"type":"join","lobbyId":12}`, "12"},
		{`{"type":"join","lobbyId":null}`, ""},
		{`{"type":"join"}`, ""},
	}
	for _, tc := range cases {
		var f Frame
		if err := json.Unmarshal([]byte(tc.raw), &f); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		if got := f.roomID(); got != tc.want {
			t.Errorf("roomID(%s) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
