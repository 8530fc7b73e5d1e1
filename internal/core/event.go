package core

import (
	"time"

	"github.com/dkoval/chatterbox-server/internal/store"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomMessage notifies clients about a chat message in a room.
	EventRoomMessage EventKind = iota
	// EventUserJoined notifies clients about a user joining a room.
	EventUserJoined
	// EventUserLeft notifies clients about a user leaving a room.
	EventUserLeft
	// EventHistory delivers message history to a client upon joining a room.
	EventHistory
	// EventError notifies a client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind EventKind
	Room int64

	// UserID/UserName identify the acting user for joined/left events.
	UserID    string
	UserName  string
	Timestamp time.Time

	Message    *store.Message   // for EventRoomMessage
	SenderName string           // display name of Message.SenderID
	Messages   []*store.Message // for EventHistory

	Error *CoreError // for EventError
}
