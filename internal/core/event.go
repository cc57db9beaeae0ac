package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventLoginSuccess confirms a claimed display name.
	EventLoginSuccess EventKind = iota
	// EventLoginError reports a rejected login attempt.
	EventLoginError
	// EventStateUpdate carries the projected outside/queue view, broadcast
	// to every connection after each occupancy change.
	EventStateUpdate
	// EventUserStatus answers a request_state with the identity's status.
	EventUserStatus
	// EventYourTurn tells a queued identity a slot is claimable.
	EventYourTurn
	// EventQueueTimeout tells an identity its claim window lapsed.
	EventQueueTimeout
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind   EventKind
	Name   string
	Status Status
	State  *StateSnapshot
	Error  *CoreError
}
