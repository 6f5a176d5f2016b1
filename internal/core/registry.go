package core

import "sync"

// Registry holds the broadcast group of every room with at least one live
// connection. Groups are created lazily on first join and dropped once the
// last member leaves.
type Registry struct {
	mu     sync.Mutex
	groups map[int64]*Group
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		groups: make(map[int64]*Group),
	}
}

// Join registers a client with the room's group, creating it when needed.
func (r *Registry) Join(roomID int64, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[roomID]
	if !ok {
		group = NewGroup(roomID)
		r.groups[roomID] = group
	}
	group.Add(c)
}

// Leave removes a client from the room's group. The group is discarded when
// its membership reaches zero. Leaving a room the client never joined is a
// no-op, so cleanup paths can call this unconditionally.
func (r *Registry) Leave(roomID int64, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[roomID]
	if !ok {
		return
	}
	group.Remove(c)
	if group.Len() == 0 {
		delete(r.groups, roomID)
	}
}

// Publish delivers an event to every connection currently joined to the
// room. Rooms are independent; there is no cross-room ordering guarantee.
func (r *Registry) Publish(roomID int64, event Event) {
	r.mu.Lock()
	group, ok := r.groups[roomID]
	r.mu.Unlock()
	if !ok {
		return
	}
	group.Publish(event)
}

// GroupLen reports the live connection count for a room.
func (r *Registry) GroupLen(roomID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[roomID]
	if !ok {
		return 0
	}
	return group.Len()
}
