package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dkoval/chatterbox-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *SQLiteStore, email string) *store.User {
	t.Helper()

	u, err := s.CreateUser(context.Background(), "Test", "User", email, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "alice@example.com")
	if u.ID == "" {
		t.Fatal("expected generated user ID")
	}
	if u.DisplayName() != "Test User" {
		t.Fatalf("unexpected display name %q", u.DisplayName())
	}

	byID, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", byID.Email)
	}

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Fatalf("expected same user, got %q vs %q", byEmail.ID, u.ID)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetUserByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)

	createTestUser(t, s, "alice@example.com")
	if _, err := s.CreateUser(context.Background(), "Other", "User", "alice@example.com", "hash"); err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestCreateRoomRecordsOwnerAsParticipant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "owner@example.com")
	room, err := s.CreateRoom(ctx, "general", owner.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if room.ID == 0 || room.Name != "general" || room.OwnerID != owner.ID {
		t.Fatalf("unexpected room: %+v", room)
	}

	ok, err := s.IsParticipant(ctx, room.ID, owner.ID)
	if err != nil {
		t.Fatalf("is participant: %v", err)
	}
	if !ok {
		t.Fatal("owner must be a participant of a freshly created room")
	}
}

func TestGetRoomNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetRoomByID(context.Background(), 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRooms(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "owner@example.com")
	for _, name := range []string{"general", "random", "dev"} {
		if _, err := s.CreateRoom(ctx, name, owner.ID); err != nil {
			t.Fatalf("create room %q: %v", name, err)
		}
	}

	rooms, err := s.ListRooms(ctx)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 3 {
		t.Fatalf("expected 3 rooms, got %d", len(rooms))
	}
	if rooms[0].Name != "general" || rooms[2].Name != "dev" {
		t.Fatalf("rooms not in creation order: %+v", rooms)
	}
}

func TestAddParticipantIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "owner@example.com")
	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")
	room, err := s.CreateRoom(ctx, "general", owner.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.AddParticipant(ctx, room.ID, alice.ID); err != nil {
			t.Fatalf("add participant: %v", err)
		}
	}
	if err := s.AddParticipant(ctx, room.ID, bob.ID); err != nil {
		t.Fatalf("add participant: %v", err)
	}

	ids, err := s.ListParticipants(ctx, room.ID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	want := []string{owner.ID, alice.ID, bob.ID}
	if len(ids) != len(want) {
		t.Fatalf("expected %d participants, got %v", len(want), ids)
	}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("participants not in join order: got %v, want %v", ids, want)
		}
	}
}

func TestIsParticipant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "owner@example.com")
	stranger := createTestUser(t, s, "stranger@example.com")
	room, err := s.CreateRoom(ctx, "general", owner.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	ok, err := s.IsParticipant(ctx, room.ID, stranger.ID)
	if err != nil {
		t.Fatalf("is participant: %v", err)
	}
	if ok {
		t.Fatal("stranger must not be a participant")
	}
}

func TestAppendAndListMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "owner@example.com")
	room, err := s.CreateRoom(ctx, "general", owner.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	for i := 0; i < 5; i++ {
		msg, err := s.AppendMessage(ctx, room.ID, owner.ID, fmt.Sprintf("message %d", i))
		if err != nil {
			t.Fatalf("append message: %v", err)
		}
		if msg.ID == "" {
			t.Fatal("expected generated message ID")
		}
	}

	msgs, err := s.ListMessages(ctx, room.ID, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
	for i, m := range msgs {
		if m.Content != fmt.Sprintf("message %d", i) {
			t.Fatalf("messages not in append order: %+v", msgs)
		}
	}
}

func TestListMessagesLimitReturnsMostRecentAscending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "owner@example.com")
	room, err := s.CreateRoom(ctx, "general", owner.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	for i := 0; i < 10; i++ {
		if _, err := s.AppendMessage(ctx, room.ID, owner.ID, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("append message: %v", err)
		}
	}

	msgs, err := s.ListMessages(ctx, room.ID, 3)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	// The window is the most recent three, oldest first.
	for i, want := range []string{"message 7", "message 8", "message 9"} {
		if msgs[i].Content != want {
			t.Fatalf("expected %q at %d, got %q", want, i, msgs[i].Content)
		}
	}
}

func TestListMessagesEmptyRoom(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "owner@example.com")
	room, err := s.CreateRoom(ctx, "general", owner.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	msgs, err := s.ListMessages(ctx, room.ID, 50)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected no messages, got %d", len(msgs))
	}
}
