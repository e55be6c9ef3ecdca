package relay

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client is one live relay connection. The room binding, liveness flag, and
// closed marker are owned by the hub and guarded by its mutex.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	addr string
	send chan []byte

	// Guarded by hub.mu.
	room   string
	alive  bool
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, addr string) *Client {
	if conn != nil {
		conn.SetReadLimit(maxMessageSize)
	}
	return &Client{
		hub:  hub,
		conn: conn,
		addr: addr,
		send: make(chan []byte, sendBuffer),
	}
}

// readPump consumes inbound frames until the connection dies, then tears the
// client down. Pongs refresh the liveness flag consumed by the heartbeat sweep.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetPongHandler(func(string) error {
		c.hub.markAlive(c)
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("relay: read error from %s: %v", c.addr, err)
			}
			return
		}
		c.handleFrame(raw)
	}
}

// handleFrame dispatches one inbound frame. Malformed or unknown frames are
// dropped; they never abort the read loop.
func (c *Client) handleFrame(raw []byte) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return
	}

	switch f.Type {
	case FrameJoin:
		if room := f.roomID(); room != "" {
			c.hub.JoinRoom(c, room)
		}
	case FrameChat:
		// Relay-native chat goes to the connection's bound room and is not
		// persisted; unbound connections have nowhere to send.
		if room := c.hub.RoomOf(c); room != "" {
			c.hub.Broadcast(room, f.Payload, c)
		}
	}
}

// writePump is the sole writer of data frames on the connection. It exits
// when the send channel is closed by Unregister or when a write fails.
// Heartbeat pings bypass it via WriteControl, which is safe concurrently.
func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
