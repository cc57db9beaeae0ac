package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandLogin claims a display name for the connection.
	CommandLogin CommandKind = iota
	// CommandLeaveClass requests an outside slot, queueing when full.
	CommandLeaveClass
	// CommandComeBack returns an outside identity to idle.
	CommandComeBack
	// CommandLeaveQueue abandons a queue position.
	CommandLeaveQueue
	// CommandRequestState asks for the connection's own status.
	CommandRequestState
)

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	Name string
}
