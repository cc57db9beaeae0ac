package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	InboundTypeLogin        = "login"
	InboundTypeLeaveClass   = "leave_class"
	InboundTypeComeBack     = "come_back"
	InboundTypeLeaveQueue   = "leave_queue"
	InboundTypeRequestState = "request_state"

	OutboundTypeLoginSuccess = "login_success"
	OutboundTypeLoginError   = "login_error"
	OutboundTypeStateUpdate  = "state_update"
	OutboundTypeUserStatus   = "user_status"
	OutboundTypeYourTurn     = "your_turn"
	OutboundTypeQueueTimeout = "queue_timeout"
	OutboundTypeError        = "error"
)

// LoginData is sent by the client to claim a display name.
type LoginData struct {
	Name string `json:"name"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// LoginSuccessData confirms the name the server bound to the connection.
type LoginSuccessData struct {
	Name string `json:"name"`
}

// StateEntry is one identity in the outside or queue list. Since is Unix
// milliseconds of the latest status transition.
type StateEntry struct {
	Name  string `json:"name"`
	Since int64  `json:"since"`
}

// StateData is the full projected view, broadcast on every change.
type StateData struct {
	Outside []StateEntry `json:"outside"`
	Queue   []StateEntry `json:"queue"`
}

// UserStatusData answers a request_state.
type UserStatusData struct {
	Status string `json:"status"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
