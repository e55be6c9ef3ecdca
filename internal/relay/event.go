package relay

import (
	"bytes"
	"encoding/json"
)

// Frame types understood on the relay channel.
const (
	FrameJoin = "join"
	FrameChat = "chat"
)

// Frame is an inbound relay message. LobbyID is kept raw because clients
// send it as either a string or a number.
type Frame struct {
	Type    string          `json:"type"`
	LobbyID json.RawMessage `json:"lobbyId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// roomID converts the wire lobbyId into its canonical string form,
// returning "" when absent or null.
func (f *Frame) roomID() string {
	raw := bytes.TrimSpace(f.LobbyID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// Numeric token; its text form is the room key.
	return string(raw)
}

// envelope is the outbound chat frame fanned out to room peers.
type envelope struct {
	Type    string          `json:"type"`
	LobbyID string          `json:"lobbyId"`
	Payload json.RawMessage `json:"payload"`
}
