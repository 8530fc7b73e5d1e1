package core

import (
	"context"

	"github.com/dkoval/chatterbox-server/internal/store"
)

// Directory is the room directory the hub consults for room metadata,
// persisted participant status, and message history. It is injected at
// construction; store.Store satisfies it.
type Directory interface {
	GetRoomByID(ctx context.Context, id int64) (*store.Room, error)
	AddParticipant(ctx context.Context, roomID int64, userID string) error
	IsParticipant(ctx context.Context, roomID int64, userID string) (bool, error)
	AppendMessage(ctx context.Context, roomID int64, senderID, content string) (*store.Message, error)
	ListMessages(ctx context.Context, roomID int64, limit int) ([]*store.Message, error)
}
