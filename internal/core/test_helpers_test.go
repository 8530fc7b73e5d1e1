package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dkoval/chatterbox-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, wait time.Duration) {
	t.Helper()

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v received: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// fakeDirectory is an in-memory Directory for hub tests.
type fakeDirectory struct {
	mu           sync.Mutex
	rooms        map[int64]*store.Room
	participants map[int64]map[string]struct{}
	messages     map[int64][]*store.Message
	nextMsg      int
}

func newFakeDirectory(roomIDs ...int64) *fakeDirectory {
	d := &fakeDirectory{
		rooms:        make(map[int64]*store.Room),
		participants: make(map[int64]map[string]struct{}),
		messages:     make(map[int64][]*store.Message),
	}
	for _, id := range roomIDs {
		d.rooms[id] = &store.Room{ID: id, Name: fmt.Sprintf("room-%d", id), CreatedAt: time.Now()}
		d.participants[id] = make(map[string]struct{})
	}
	return d
}

func (d *fakeDirectory) GetRoomByID(_ context.Context, id int64) (*store.Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (d *fakeDirectory) AddParticipant(_ context.Context, roomID int64, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.participants[roomID] == nil {
		d.participants[roomID] = make(map[string]struct{})
	}
	d.participants[roomID][userID] = struct{}{}
	return nil
}

func (d *fakeDirectory) IsParticipant(_ context.Context, roomID int64, userID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.participants[roomID][userID]
	return ok, nil
}

func (d *fakeDirectory) AppendMessage(_ context.Context, roomID int64, senderID, content string) (*store.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextMsg++
	msg := &store.Message{
		ID:        fmt.Sprintf("m%d", d.nextMsg),
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	d.messages[roomID] = append(d.messages[roomID], msg)
	return msg, nil
}

func (d *fakeDirectory) ListMessages(_ context.Context, roomID int64, limit int) ([]*store.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	msgs := d.messages[roomID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*store.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (d *fakeDirectory) removeParticipant(roomID int64, userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.participants[roomID], userID)
}

func (d *fakeDirectory) messageCount(roomID int64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.messages[roomID])
}

func (d *fakeDirectory) lastMessage(roomID int64) *store.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	msgs := d.messages[roomID]
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}
