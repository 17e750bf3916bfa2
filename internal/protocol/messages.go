// Package protocol defines the WebSocket message types and structures used for
// communication between chat clients and the gateway. All messages are
// serialized as JSON and follow a consistent envelope format with a type
// discriminator.
package protocol

import (
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// Message type constants
// ---------------------------------------------------------------------------

// Client -> Server message types.
const (
	TypeJoin       = "join"
	TypeOpenRoom   = "open_room"
	TypeCloseRoom  = "close_room"
	TypeTyping     = "typing"
	TypeMessage    = "message"
	TypeFileShared = "file_shared"
	TypePing       = "ping"
)

// Server -> Client message types.
const (
	TypeJoined         = "joined"
	TypeRoomOpened     = "room_opened"
	TypeRoomClosed     = "room_closed"
	TypeTypingUpdate   = "typing_update"
	TypeRoomMessage    = "room_message"
	TypeMessageBlocked = "message_blocked"
	TypeTrustAdvisory  = "trust_advisory"
	TypeMuted          = "muted"
	TypeRateLimited    = "rate_limited"
	TypeError          = "error"
	TypePong           = "pong"
)

// ---------------------------------------------------------------------------
// Envelope — used for initial JSON parsing to extract the type discriminator.
// ---------------------------------------------------------------------------

// Envelope holds the message type and the raw JSON payload for deferred
// parsing into a concrete struct.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements the json.Unmarshaler interface. It captures the
// full raw bytes and extracts only the "type" field so that the rest of the
// payload can be decoded later into the appropriate concrete struct.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	// Capture the full raw message for deferred parsing.
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	// Extract only the type field.
	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	return nil
}

// ---------------------------------------------------------------------------
// Client -> Server message structs
// ---------------------------------------------------------------------------

// JoinMsg identifies the connecting user. It must be the first message on a
// new connection.
type JoinMsg struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// OpenRoomMsg is sent when the client opens a room view. The gateway starts
// a presence poller for the room in response.
type OpenRoomMsg struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

// CloseRoomMsg is sent when the client closes a room view. The gateway tears
// the room's presence poller down in response.
type CloseRoomMsg struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

// TypingMsg announces that the client started or stopped composing.
type TypingMsg struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	IsTyping bool   `json:"is_typing"`
}

// ChatMsg is a text message submitted to a room.
type ChatMsg struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Text   string `json:"text"`
}

// FileSharedMsg notifies the gateway that the client shared a file through
// the platform's upload service, for trust-reward bookkeeping.
type FileSharedMsg struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	FileName string `json:"file_name"`
}

// PingMsg is a client-initiated keepalive ping.
type PingMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Server -> Client message structs
// ---------------------------------------------------------------------------

// JoinedMsg confirms the user's session is established.
type JoinedMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// RoomOpenedMsg confirms a room view is open and presence polling started.
type RoomOpenedMsg struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

// RoomClosedMsg confirms a room view was closed.
type RoomClosedMsg struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

// TypingUser is one entry in a typing update.
type TypingUser struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// TypingUpdateMsg carries the room's current typing set (never including the
// receiving user).
type TypingUpdateMsg struct {
	Type   string       `json:"type"`
	RoomID string       `json:"room_id"`
	Users  []TypingUser `json:"users"`
}

// RoomMessageMsg is an accepted message broadcast to room members.
type RoomMessageMsg struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Text     string `json:"text"`
	Ts       int64  `json:"ts"`
}

// MessageBlockedMsg tells the sender their message was rejected. The client
// shows Reason for TTLSeconds, then clears it.
type MessageBlockedMsg struct {
	Type       string `json:"type"`
	RoomID     string `json:"room_id"`
	Reason     string `json:"reason"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// TrustAdvisoryMsg is a non-blocking warning shown to low-trust senders for
// TTLSeconds.
type TrustAdvisoryMsg struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// MutedMsg tells the sender their trust score is too low to submit at all.
type MutedMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RateLimitedMsg is sent when the client exceeded a send or typing rate limit.
type RateLimitedMsg struct {
	Type       string `json:"type"`
	RetryAfter int    `json:"retry_after"`
}

// ErrorMsg is sent by the server to communicate an error condition.
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PongMsg is the server's response to a client ping.
type PongMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// ParseClientMessage parses raw WebSocket bytes into a typed client message.
// It returns the message type string, the decoded struct, and any error
// encountered during parsing. An error is returned for unknown or
// server-only message types.
func ParseClientMessage(data []byte) (string, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("protocol: failed to parse message: %w", err)
	}

	var (
		msg interface{}
		err error
	)

	switch env.Type {
	case TypeJoin:
		var m JoinMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeOpenRoom:
		var m OpenRoomMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeCloseRoom:
		var m CloseRoomMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeTyping:
		var m TypingMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeMessage:
		var m ChatMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeFileShared:
		var m FileSharedMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypePing:
		var m PingMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	default:
		return env.Type, nil, fmt.Errorf("protocol: unknown client message type: %q", env.Type)
	}

	if err != nil {
		return env.Type, nil, fmt.Errorf("protocol: failed to decode %q payload: %w", env.Type, err)
	}
	return env.Type, msg, nil
}

// NewServerMessage creates a JSON-encoded byte slice for a server message.
// The msgType is injected into the payload under the "type" key. The payload
// should be one of the server message structs; this function marshals it to
// JSON, injects the type field, and returns the final bytes.
func NewServerMessage(msgType string, payload interface{}) ([]byte, error) {
	// Marshal the payload struct to a generic map so we can ensure the "type"
	// field is present and correct.
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal payload: %w", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("protocol: failed to unmarshal payload into map: %w", err)
	}

	m["type"] = msgType

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal server message: %w", err)
	}
	return out, nil
}
