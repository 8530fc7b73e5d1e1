package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom subscribes the client to a room.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom unsubscribes the client from a room.
	CommandLeaveRoom
	// CommandSendMessage delivers a chat message to the client's current room.
	CommandSendMessage
)

// Command represents an action requested by a client. Commands from one
// client are handled strictly in arrival order.
type Command struct {
	Kind    CommandKind
	Room    int64  // for join/leave
	Content string // for send
}
