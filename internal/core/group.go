package core

import "sync"

// Group is the broadcast group of live connections joined to one room.
// The mutex serializes joins, leaves and publishes, so a publish always
// sees a consistent membership snapshot and no client receives an event
// mid-leave.
type Group struct {
	RoomID int64

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewGroup constructs an empty group for a room.
func NewGroup(roomID int64) *Group {
	return &Group{
		RoomID:  roomID,
		clients: make(map[*Client]struct{}),
	}
}

// Add inserts a client into the group. Returns true if newly added.
func (g *Group) Add(c *Client) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.clients[c]; exists {
		return false
	}
	g.clients[c] = struct{}{}
	return true
}

// Remove deletes a client from the group. Returns true if removed.
func (g *Group) Remove(c *Client) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.clients[c]; !exists {
		return false
	}
	delete(g.clients, c)
	return true
}

// Publish delivers an event to every current member's outbound queue.
func (g *Group) Publish(event Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for client := range g.clients {
		select {
		case client.Events <- event:
		default:
			// Drop if slow consumer.
		}
	}
}

// Len returns the current member count.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}
