package core

// Client is a connection as seen by the core layer. The hub owns roomID;
// transports only touch the channels.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	roomID int
	quit   chan struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 16),
		Events:   make(chan *Event, 64),
		quit:     make(chan struct{}),
	}
}
