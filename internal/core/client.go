package core

import "sync"

// Client is a live authenticated connection as seen by the core layer.
// Identity is set once at registration and never changes; the current room
// is owned by the hub and only ever touched from the client's command pump.
type Client struct {
	ID       string // connection ID
	UserID   string
	Name     string
	Commands chan *Command
	Events   chan *Event

	room int64 // current room ID, 0 = none

	done     chan struct{}
	doneOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id, userID, name string) *Client {
	if name == "" {
		name = userID
	}
	return &Client{
		ID:       id,
		UserID:   userID,
		Name:     name,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 32),
		done:     make(chan struct{}),
	}
}

// close signals the client's pump to stop. Safe to call more than once;
// only the first call has effect.
func (c *Client) close() {
	c.doneOnce.Do(func() { close(c.done) })
}
