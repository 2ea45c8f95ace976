package session

import "sync"

// Registry tracks which sockets are attached to this instance, by room.
// It is strictly instance-local: cross-instance membership lives in the
// room store, and cross-instance delivery goes through the fanout bus.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[*Client]struct{})}
}

// Add registers a client and reports whether it is the first local
// socket for the room.
func (r *Registry) Add(roomID string, c *Client) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clients, ok := r.rooms[roomID]
	if !ok {
		clients = make(map[*Client]struct{})
		r.rooms[roomID] = clients
	}
	clients[c] = struct{}{}
	return len(clients) == 1
}

// Remove deregisters a client and reports how many local sockets remain
// for the room. Removing an unknown client is a no-op.
func (r *Registry) Remove(roomID string, c *Client) (remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clients, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(r.rooms, roomID)
	}
	return len(clients)
}

// Clients returns a snapshot of the room's local sockets, safe to range
// over while connections come and go.
func (r *Registry) Clients(roomID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]*Client, 0, len(r.rooms[roomID]))
	for c := range r.rooms[roomID] {
		clients = append(clients, c)
	}
	return clients
}

func (r *Registry) Count(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
