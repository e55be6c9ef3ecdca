// Package relay fans chat events out to the WebSocket connections currently
// subscribed to a lobby's room and reaps connections that stop answering
// heartbeat probes. Room membership here is independent of the durable
// lobby membership kept by the ledger: a connection may watch a room's chat
// without the user being a member.
package relay

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub is the connection registry. It tracks every live relay connection,
// its room binding, and its liveness flag, and runs the periodic heartbeat
// sweep that removes dead peers.
type Hub struct {
	interval time.Duration
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a hub whose heartbeat fires every interval.
func NewHub(interval time.Duration) *Hub {
	return &Hub{
		interval: interval,
		clients:  make(map[*Client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Register adds a connection to the registry, alive and bound to no room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	c.alive = true
	c.closed = false
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("relay: connection from %s registered (%d total)", c.addr, count)
}

// Unregister removes a connection from all tracking. It is idempotent; the
// send channel is closed exactly once, after the lock is released.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	c.closed = true
	c.room = ""
	count := len(h.clients)
	h.mu.Unlock()

	close(c.send)
	log.Printf("relay: connection from %s unregistered (%d total)", c.addr, count)
}

// JoinRoom binds a connection to a room, unconditionally replacing any
// previous binding.
func (h *Hub) JoinRoom(c *Client, room string) {
	h.mu.Lock()
	if h.clients[c] {
		c.room = room
	}
	h.mu.Unlock()
}

// RoomOf returns the connection's current room binding, "" when unbound.
func (h *Hub) RoomOf(c *Client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.room
}

func (h *Hub) markAlive(c *Client) {
	h.mu.Lock()
	c.alive = true
	h.mu.Unlock()
}

// ClientCount reports the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a chat envelope to every registered connection bound to
// room, skipping exclude. The read lock covers only the non-blocking handoff
// to each peer's send buffer — the socket writes happen in the write pumps —
// and guarantees no channel is closed mid-send. A full buffer drops the
// frame for that peer rather than blocking the rest of the room.
func (h *Hub) Broadcast(room string, payload json.RawMessage, exclude *Client) {
	msg, err := json.Marshal(envelope{Type: FrameChat, LobbyID: room, Payload: payload})
	if err != nil {
		log.Printf("relay: marshal broadcast for room %s: %v", room, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.room != room || c == exclude {
			continue
		}
		select {
		case c.send <- msg:
		default:
			// Slow peer; the heartbeat sweep will deal with it if it is dead.
		}
	}
}

// BroadcastToLobby is the HTTP-side entry point: it relays an already
// persisted chat payload to the lobby's room.
func (h *Hub) BroadcastToLobby(lobbyID uint, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("relay: marshal chat payload for lobby %d: %v", lobbyID, err)
		return
	}
	h.Broadcast(strconv.FormatUint(uint64(lobbyID), 10), raw, nil)
}

// Run drives the heartbeat sweep until ctx is cancelled, then closes every
// remaining connection.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

// sweep reaps every connection that failed to pong since the previous tick,
// then clears the flag on the survivors and probes them again. A dead peer
// is therefore gone within two intervals of its last response.
func (h *Hub) sweep() {
	h.mu.Lock()
	var dead, live []*Client
	for c := range h.clients {
		if !c.alive {
			dead = append(dead, c)
		} else {
			c.alive = false
			live = append(live, c)
		}
	}
	h.mu.Unlock()

	for _, c := range dead {
		log.Printf("relay: reaping dead connection from %s", c.addr)
		h.Unregister(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}

	deadline := time.Now().Add(writeWait)
	for _, c := range live {
		if c.conn == nil {
			continue
		}
		if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			log.Printf("relay: ping to %s failed: %v", c.addr, err)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Unregister(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

// ServeWS upgrades an HTTP request to a relay connection and blocks reading
// frames until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("relay: upgrade failed: %v", err)
		return
	}

	c := newClient(h, conn, r.RemoteAddr)
	h.Register(c)

	go c.writePump()
	c.readPump()
}
