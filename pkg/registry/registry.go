// Package registry is the authoritative in-memory map of live connections
// to their identity and joined rooms. It is the only shared mutable
// resource on the server; every access goes through the lock here.
package registry

import "sync"

// Sender is the write half of a connection as the registry and relay see
// it. TrySend must not block: it reports false when the transport is closed
// or its buffer is full.
type Sender interface {
	TrySend(msg []byte) bool
}

type entry struct {
	identity string
	rooms    map[string]struct{}
}

// Registry tracks connection -> {identity, joined rooms}. Multiple
// connections per identity are allowed.
type Registry struct {
	mu    sync.RWMutex
	conns map[Sender]*entry
}

func New() *Registry {
	return &Registry{conns: make(map[Sender]*entry)}
}

// Register adds a connection with an empty room set.
func (r *Registry) Register(identity string, c Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c] = &entry{identity: identity, rooms: make(map[string]struct{})}
}

// JoinRoom adds roomID to the connection's room set. No-op for unknown
// connections.
func (r *Registry) JoinRoom(c Sender, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[c]; ok {
		e.rooms[roomID] = struct{}{}
	}
}

// LeaveRoom removes roomID from the connection's room set.
func (r *Registry) LeaveRoom(c Sender, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[c]; ok {
		delete(e.rooms, roomID)
	}
}

// Unregister removes the connection entirely. Called exactly once per
// connection, synchronously with transport close.
func (r *Registry) Unregister(c Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c)
}

// MembersOf returns a point-in-time snapshot of the connections joined to
// roomID, optionally excluding one (the broadcast originator). The snapshot
// is safe to iterate while the registry keeps mutating.
func (r *Registry) MembersOf(roomID string, excluding Sender) []Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Sender
	for c, e := range r.conns {
		if c == excluding {
			continue
		}
		if _, ok := e.rooms[roomID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// HasIdentity reports whether any registered connection belongs to
// identity.
func (r *Registry) HasIdentity(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.conns {
		if e.identity == identity {
			return true
		}
	}
	return false
}

// Identity returns the authenticated identity behind a connection.
func (r *Registry) Identity(c Sender) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[c]; ok {
		return e.identity, true
	}
	return "", false
}

// Rooms returns a copy of the connection's joined-room set.
func (r *Registry) Rooms(c Sender) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[c]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(e.rooms))
	for room := range e.rooms {
		out = append(out, room)
	}
	return out
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
