package hub

import (
	"sync"

	"chat-hub/domain"
)

type connSet map[string]*Connection

// Registry owns the contended routing tables: the set of live
// connections, the user -> connection session bindings and the
// room -> subscribers sets. All access goes through its mutex; no
// blocking I/O ever happens under it.
type Registry struct {
	mu       sync.RWMutex
	conns    connSet                   // every registered connection
	bindings map[string]*Connection    // userID -> its single live connection
	members  map[domain.RoomID]connSet // room -> subscribed connections
}

func NewRegistry() *Registry {
	return &Registry{
		conns:    make(connSet),
		bindings: make(map[string]*Connection),
		members:  make(map[domain.RoomID]connSet),
	}
}

// Register adds a freshly accepted connection, not yet authenticated.
func (r *Registry) Register(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID] = conn
}

// Deregister removes a connection from every table. It reports whether
// the connection was still the live binding for its user, so the caller
// knows whether a presence transition is due. A connection superseded by
// a later authentication returns false here.
func (r *Registry) Deregister(conn *Connection) (userID string, wasBound bool) {
	rooms := conn.subscriptions()

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, conn.ID)
	for _, room := range rooms {
		r.removeMember(room, conn)
	}
	uid := conn.UserID()
	if uid == "" {
		return "", false
	}
	if bound, ok := r.bindings[uid]; ok && bound.ID == conn.ID {
		delete(r.bindings, uid)
		return uid, true
	}
	return uid, false
}

// Bind makes conn the single live connection for userID and returns the
// displaced connection, if any. Last authentication wins.
func (r *Registry) Bind(userID string, conn *Connection) (prev *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bound, ok := r.bindings[userID]; ok && bound.ID != conn.ID {
		prev = bound
	}
	r.bindings[userID] = conn
	return prev
}

// ReleaseBinding clears the binding if conn still owns it. Used by
// logout; idempotent with the disconnect path.
func (r *Registry) ReleaseBinding(conn *Connection) bool {
	uid := conn.UserID()
	if uid == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if bound, ok := r.bindings[uid]; ok && bound.ID == conn.ID {
		delete(r.bindings, uid)
		return true
	}
	return false
}

// BoundConnection resolves a user's live connection for point-to-point
// delivery.
func (r *Registry) BoundConnection(userID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.bindings[userID]
	return conn, ok
}

// Subscribe adds a connection to a room's fan-out set.
func (r *Registry) Subscribe(room domain.RoomID, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[room]; !ok {
		r.members[room] = make(connSet)
	}
	r.members[room][conn.ID] = conn
}

// Unsubscribe removes a connection from a room, dropping empty sets so
// the table does not grow with abandoned rooms.
func (r *Registry) Unsubscribe(room domain.RoomID, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeMember(room, conn)
}

func (r *Registry) removeMember(room domain.RoomID, conn *Connection) {
	if set, ok := r.members[room]; ok {
		delete(set, conn.ID)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
}

// RoomConnections snapshots a room's subscribers. The slice is safe to
// iterate without holding the registry lock.
func (r *Registry) RoomConnections(room domain.RoomID) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.members[room]
	if !ok {
		return nil
	}
	conns := make([]*Connection, 0, len(set))
	for _, c := range set {
		conns = append(conns, c)
	}
	return conns
}

// Connections snapshots every registered connection, authenticated or
// not, for presence broadcasts.
func (r *Registry) Connections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}
