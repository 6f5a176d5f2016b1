package core

// Client is one live connection as seen by the broadcast layer.
type Client struct {
	ID       string
	UserID   int64
	Username string
	Events   chan Event
}

// NewClient constructs a client with an initialized event queue.
func NewClient(id string, userID int64, username string) *Client {
	return &Client{
		ID:       id,
		UserID:   userID,
		Username: username,
		Events:   make(chan Event, 16),
	}
}
