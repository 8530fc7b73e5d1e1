package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for events coming from the client.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Outbound is the envelope for events sent to the client.
type Outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const (
	InboundTypeJoin    = "join"
	InboundTypeLeave   = "leave"
	InboundTypeMessage = "message"

	OutboundTypeHistory    = "history"
	OutboundTypeMessage    = "message"
	OutboundTypeUserJoined = "user_joined"
	OutboundTypeUserLeft   = "user_left"
	OutboundTypeError      = "error"
)

// JoinPayload requests to subscribe to a room.
type JoinPayload struct {
	RoomID int64 `json:"roomId"`
}

// LeavePayload requests to unsubscribe from a room.
type LeavePayload struct {
	RoomID int64 `json:"roomId"`
}

// MessagePayload is a chat message from the client, sent to its current room.
type MessagePayload struct {
	Content string `json:"content"`
}

// MessageEvent is a chat message fanned out to a room's subscribers.
type MessageEvent struct {
	MessageID  string    `json:"messageId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	RoomID     int64     `json:"roomId"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// HistoryMessage is one entry of a room's replayed history.
type HistoryMessage struct {
	MessageID string    `json:"messageId"`
	SenderID  string    `json:"senderId"`
	RoomID    int64     `json:"roomId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEvent delivers a room's message history, sent once to the joining
// client only.
type HistoryEvent struct {
	Messages []HistoryMessage `json:"messages"`
}

// PresenceEvent notifies subscribers that a user joined or left a room.
type PresenceEvent struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorPayload describes a recoverable error, delivered only to the client
// that caused it.
type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
