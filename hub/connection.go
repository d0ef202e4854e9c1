package hub

import (
	"context"
	"sync"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"

	"github.com/google/uuid"
)

// Connection is the transient handle for one transport connection. The
// user binding is set exactly once per successful authentication and
// cleared only by closing the connection.
type Connection struct {
	ID string

	sink    contract.EventSink
	closeFn func()

	mu        sync.Mutex
	user      domain.User
	bound     bool
	room      domain.RoomID
	privates  map[domain.RoomID]struct{}
	closed    bool
	closeOnce sync.Once
}

// NewConnection wraps a transport connection. closeFn must tear down the
// underlying transport; it is invoked at most once.
func NewConnection(sink contract.EventSink, closeFn func()) *Connection {
	return &Connection{
		ID:       uuid.NewString(),
		sink:     sink,
		closeFn:  closeFn,
		privates: make(map[domain.RoomID]struct{}),
	}
}

// Bind attaches an authenticated user to the connection.
func (c *Connection) Bind(user domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
	c.bound = true
}

// User returns the bound user, if any.
func (c *Connection) User() (domain.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user, c.bound
}

// UserID returns the bound user id or "" when unauthenticated.
func (c *Connection) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.bound {
		return ""
	}
	return c.user.ID
}

// Room returns the currently subscribed broadcast room.
func (c *Connection) Room() domain.RoomID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Connection) setRoom(room domain.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
}

func (c *Connection) addPrivate(room domain.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.privates[room] = struct{}{}
}

// subscriptions returns every room this connection belongs to, for
// cleanup on disconnect.
func (c *Connection) subscriptions() []domain.RoomID {
	c.mu.Lock()
	defer c.mu.Unlock()
	rooms := make([]domain.RoomID, 0, len(c.privates)+1)
	if c.room != "" {
		rooms = append(rooms, c.room)
	}
	for r := range c.privates {
		rooms = append(rooms, r)
	}
	return rooms
}

// Send delivers an event through the connection's sink. Events for a
// closed connection are silently discarded.
func (c *Connection) Send(ctx context.Context, e event.DomainEvent) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	_ = c.sink.Consume(ctx, e)
}

// Close tears down the transport exactly once. Future Sends are no-ops.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		if c.closeFn != nil {
			c.closeFn()
		}
	})
}
