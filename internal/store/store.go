package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered account.
type User struct {
	ID           string // UUID
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// DisplayName is the human-readable name shown to other participants.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// Room represents a chat room with a persisted participant set.
type Room struct {
	ID        int64
	Name      string
	OwnerID   string
	CreatedAt time.Time
}

// Message represents a persisted chat message. Messages are immutable and
// append-only; their order within a room is the order of insertion.
type Message struct {
	ID        string // UUID
	RoomID    int64
	SenderID  string
	Content   string
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, firstName, lastName, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// RoomStore handles room and participant persistence.
type RoomStore interface {
	// CreateRoom creates a new room. The owner becomes the first participant.
	CreateRoom(ctx context.Context, name, ownerID string) (*Room, error)

	// GetRoomByID retrieves a room by ID.
	GetRoomByID(ctx context.Context, id int64) (*Room, error)

	// ListRooms lists all rooms.
	ListRooms(ctx context.Context) ([]*Room, error)

	// AddParticipant records a user as a participant of the room. Adding an
	// existing participant is a no-op.
	AddParticipant(ctx context.Context, roomID int64, userID string) error

	// IsParticipant checks whether a user is a participant of the room.
	IsParticipant(ctx context.Context, roomID int64, userID string) (bool, error)

	// ListParticipants lists participant user IDs in join order.
	ListParticipants(ctx context.Context, roomID int64) ([]string, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage appends a message to the room's history and returns the
	// stored record. Concurrent appends to the same room never interleave.
	AppendMessage(ctx context.Context, roomID int64, senderID, content string) (*Message, error)

	// ListMessages returns up to limit most recent messages of the room in
	// ascending insertion order. limit <= 0 means no limit.
	ListMessages(ctx context.Context, roomID int64, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
