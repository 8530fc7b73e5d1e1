package core

import "sync"

// room holds the live subscriber set of one room. Each room is its own
// serialization domain: mutation and the broadcast that follows it happen
// under mu, so a broadcast never observes a half-applied membership change.
// Different rooms never share a lock.
type room struct {
	id   int64
	mu   sync.Mutex
	subs map[*Client]struct{}

	// dead marks a room state evicted from the hub map; a subscriber must
	// not be added to it (the caller re-fetches a fresh state instead).
	dead bool
}

func newRoom(id int64) *room {
	return &room{
		id:   id,
		subs: make(map[*Client]struct{}),
	}
}

// add inserts a client into the subscriber set. Caller holds mu.
func (r *room) add(c *Client) {
	r.subs[c] = struct{}{}
}

// remove deletes a client from the subscriber set. Caller holds mu.
func (r *room) remove(c *Client) {
	delete(r.subs, c)
}

// broadcast sends an event to every current subscriber. Caller holds mu.
// Sends are non-blocking: a subscriber whose event buffer is full has the
// event dropped rather than stalling delivery to the rest of the room.
func (r *room) broadcast(event *Event) {
	for client := range r.subs {
		select {
		case client.Events <- event:
		default:
			// Slow consumer; drop for this client only.
		}
	}
}

// empty returns true if no clients are subscribed. Caller holds mu.
func (r *room) empty() bool {
	return len(r.subs) == 0
}
