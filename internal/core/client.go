package core

// Client is one live connection as seen by the core layer. An identity may
// own several clients at once (multi-tab); Session marks the lineage they
// share.
type Client struct {
	ID       string
	Session  string
	Name     string
	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs a client with initialized channels.
func NewClient(id, session string) *Client {
	return &Client{
		ID:       id,
		Session:  session,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 16),
	}
}
