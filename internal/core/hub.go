package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/dkoval/chatterbox-server/internal/store"
)

const (
	// MaxContentRunes bounds chat message content length after trimming.
	MaxContentRunes = 1000
	// DefaultHistoryLimit applies when the hub is built with a non-positive
	// history limit.
	DefaultHistoryLimit = 50
)

// Hub owns the set of live clients and the per-room subscriber tables.
// Each client's commands are handled in arrival order by a dedicated pump
// goroutine; each room serializes its own membership changes and broadcasts
// behind its own lock, so rooms never block one another.
type Hub struct {
	dir          Directory
	log          *zerolog.Logger
	historyLimit int

	mu      sync.Mutex
	clients map[*Client]struct{}
	rooms   map[int64]*room
	closed  bool

	wg sync.WaitGroup
}

// NewHub creates a hub backed by the given room directory.
func NewHub(dir Directory, logger *zerolog.Logger, historyLimit int) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Hub{
		dir:          dir,
		log:          logger,
		historyLimit: historyLimit,
		clients:      make(map[*Client]struct{}),
		rooms:        make(map[int64]*room),
	}
}

// Run blocks until the context is cancelled, then shuts down every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	h.closed = true
	snapshot := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	for _, c := range snapshot {
		c.close()
	}
	h.wg.Wait()
}

// RegisterClient adds an authenticated client to the registry and starts its
// command pump.
func (h *Hub) RegisterClient(c *Client) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.close()
		close(c.Events)
		return
	}
	h.clients[c] = struct{}{}
	h.wg.Add(1)
	h.mu.Unlock()

	go h.pump(c)
}

// UnregisterClient removes a client. Idempotent: the first call triggers the
// same cleanup as an explicit leave for whatever room the client holds,
// closes its event stream, and drops it from the registry; later calls do
// nothing.
func (h *Hub) UnregisterClient(c *Client) {
	c.close()
}

// Stats returns the number of live rooms and clients.
func (h *Hub) Stats() (rooms, clients int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms), len(h.clients)
}

// SubscriberCount returns the current number of subscribers of a room.
func (h *Hub) SubscriberCount(roomID int64) int {
	h.mu.Lock()
	r, ok := h.rooms[roomID]
	h.mu.Unlock()
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// pump handles one client's commands sequentially until the client is closed,
// then performs disconnect cleanup. All transitions of a client, including
// the terminal one, happen on this goroutine.
func (h *Hub) pump(c *Client) {
	defer h.wg.Done()

	for {
		select {
		case <-c.done:
			h.teardown(c)
			return
		case cmd := <-c.Commands:
			h.handle(c, cmd)
		}
	}
}

func (h *Hub) teardown(c *Client) {
	if c.room != 0 {
		h.leaveCurrentRoom(c)
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	close(c.Events)
	h.log.Debug().Str("conn_id", c.ID).Str("user_id", c.UserID).Msg("client closed")
}

func (h *Hub) handle(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(c, cmd.Room)
	case CommandLeaveRoom:
		h.handleLeave(c, cmd.Room)
	case CommandSendMessage:
		h.handleSend(c, cmd.Content)
	default:
		h.sendError(c, coreError(ErrCodeUnknownEvent, "unknown event type"))
	}
}

func (h *Hub) handleJoin(c *Client, roomID int64) {
	ctx := context.Background()

	if _, err := h.dir.GetRoomByID(ctx, roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.sendError(c, coreError(ErrCodeRoomNotFound, "room not found"))
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("lookup room")
		h.sendError(c, coreError(ErrCodeInternal, "internal error"))
		return
	}

	// Subscribing implies persisted participant status.
	if err := h.dir.AddParticipant(ctx, roomID, c.UserID); err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Str("user_id", c.UserID).Msg("add participant")
		h.sendError(c, coreError(ErrCodeInternal, "internal error"))
		return
	}

	// A client subscribes to at most one room; switching rooms leaves the
	// old one first. The window between leave and join is documented: the
	// client is briefly in neither room.
	if c.room != 0 && c.room != roomID {
		h.leaveCurrentRoom(c)
	}

	r := h.lockedRoom(roomID)
	r.add(c)
	c.room = roomID
	r.broadcast(&Event{
		Kind:      EventUserJoined,
		Room:      roomID,
		UserID:    c.UserID,
		UserName:  c.Name,
		Timestamp: time.Now().UTC(),
	})
	r.mu.Unlock()

	// History goes to the joining client only.
	msgs, err := h.dir.ListMessages(ctx, roomID, h.historyLimit)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("load history")
		h.sendError(c, coreError(ErrCodeInternal, "internal error"))
		return
	}
	h.sendTo(c, &Event{Kind: EventHistory, Room: roomID, Messages: msgs})

	h.log.Debug().Str("user_id", c.UserID).Int64("room_id", roomID).Msg("user joined room")
}

func (h *Hub) handleLeave(c *Client, roomID int64) {
	// Leaving a room the client is not subscribed to is a no-op.
	if c.room != roomID || c.room == 0 {
		return
	}
	h.leaveCurrentRoom(c)
}

func (h *Hub) handleSend(c *Client, content string) {
	if c.room == 0 {
		h.sendError(c, coreError(ErrCodeNotInRoom, "you must join a room first"))
		return
	}
	roomID := c.room

	content = strings.TrimSpace(content)
	if content == "" {
		h.sendError(c, coreError(ErrCodeInvalidContent, "message content is required"))
		return
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		h.sendError(c, coreError(ErrCodeContentTooLong, "message content must not exceed 1000 characters"))
		return
	}

	ctx := context.Background()
	ok, err := h.dir.IsParticipant(ctx, roomID, c.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Str("user_id", c.UserID).Msg("check participant")
		h.sendError(c, coreError(ErrCodeInternal, "internal error"))
		return
	}
	if !ok {
		h.sendError(c, coreError(ErrCodeForbidden, "not a participant of this room"))
		return
	}

	// Append under the room lock so broadcast order matches history order.
	r := h.lockedRoom(roomID)
	msg, err := h.dir.AppendMessage(ctx, roomID, c.UserID, content)
	if err != nil {
		r.mu.Unlock()
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("append message")
		h.sendError(c, coreError(ErrCodeInternal, "internal error"))
		return
	}
	r.broadcast(&Event{
		Kind:       EventRoomMessage,
		Room:       roomID,
		Message:    msg,
		SenderName: c.Name,
	})
	r.mu.Unlock()
}

// leaveCurrentRoom removes the client from its current room and notifies the
// remaining subscribers. The client does not receive its own leave notice.
func (h *Hub) leaveCurrentRoom(c *Client) {
	roomID := c.room

	r := h.lockedRoom(roomID)
	r.remove(c)
	c.room = 0
	r.broadcast(&Event{
		Kind:      EventUserLeft,
		Room:      roomID,
		UserID:    c.UserID,
		UserName:  c.Name,
		Timestamp: time.Now().UTC(),
	})
	r.mu.Unlock()

	h.dropIfEmpty(r)

	h.log.Debug().Str("user_id", c.UserID).Int64("room_id", roomID).Msg("user left room")
}

// lockedRoom returns the room state for roomID with its lock held, creating
// it if needed. A state evicted between fetch and lock is retried.
func (h *Hub) lockedRoom(roomID int64) *room {
	for {
		h.mu.Lock()
		r, ok := h.rooms[roomID]
		if !ok {
			r = newRoom(roomID)
			h.rooms[roomID] = r
		}
		h.mu.Unlock()

		r.mu.Lock()
		if r.dead {
			r.mu.Unlock()
			continue
		}
		return r
	}
}

// dropIfEmpty evicts a room state with no subscribers. Lock order is the hub
// lock first, then the room lock, matching lockedRoom's retry protocol.
func (h *Hub) dropIfEmpty(r *room) {
	h.mu.Lock()
	r.mu.Lock()
	if r.empty() && !r.dead {
		r.dead = true
		delete(h.rooms, r.id)
	}
	r.mu.Unlock()
	h.mu.Unlock()
}

func (h *Hub) sendError(c *Client, ce *CoreError) {
	h.sendTo(c, &Event{Kind: EventError, Error: ce})
}

// sendTo delivers an event to a single client with the same non-blocking
// policy as room broadcasts.
func (h *Hub) sendTo(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		h.log.Warn().Str("conn_id", c.ID).Msg("event buffer full, dropping event")
	}
}
