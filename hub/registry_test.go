package hub

import (
	"testing"

	"chat-hub/domain"

	"github.com/stretchr/testify/require"
)

func newTestConnection() *Connection {
	return NewConnection(NewSink(8), func() {})
}

func TestRegistry_Subscribe_One_Room_Multiple_Connections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	room := domain.RoomID("general")
	conn1 := newTestConnection()
	conn2 := newTestConnection()

	// When two connections subscribe the same room
	registry.Subscribe(room, conn1)
	registry.Subscribe(room, conn2)

	// Then both are in the fan-out set
	conns := registry.RoomConnections(room)
	req.Len(conns, 2)
	req.Contains(conns, conn1)
	req.Contains(conns, conn2)
}

func TestRegistry_Unsubscribe_Drops_Empty_Rooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	room := domain.RoomID("general")
	conn := newTestConnection()

	// Given a subscribed connection
	registry.Subscribe(room, conn)
	req.Len(registry.RoomConnections(room), 1)

	// When it unsubscribes
	registry.Unsubscribe(room, conn)

	// Then the room set is gone entirely
	req.Nil(registry.RoomConnections(room))
}

func TestRegistry_Bind_Last_Authentication_Wins(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := "user-1"
	first := newTestConnection()
	second := newTestConnection()
	registry.Register(first)
	registry.Register(second)

	// Given a first binding
	prev := registry.Bind(userID, first)
	req.Nil(prev)

	// When the same user authenticates on a second connection
	prev = registry.Bind(userID, second)

	// Then the first connection is the displaced one
	req.Same(first, prev)
	bound, ok := registry.BoundConnection(userID)
	req.True(ok)
	req.Same(second, bound)
}

func TestRegistry_Bind_Same_Connection_Is_Not_Displaced(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newTestConnection()
	registry.Register(conn)

	req.Nil(registry.Bind("user-1", conn))
	req.Nil(registry.Bind("user-1", conn))
}

func TestRegistry_Deregister_Superseded_Connection_Keeps_Binding(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	user := domain.User{ID: "user-1", Username: "alice"}
	first := newTestConnection()
	second := newTestConnection()
	registry.Register(first)
	registry.Register(second)

	// Given a superseded first connection
	registry.Bind(user.ID, first)
	first.Bind(user)
	registry.Bind(user.ID, second)
	second.Bind(user)

	// When the superseded connection disconnects
	_, wasBound := registry.Deregister(first)

	// Then it no longer owns the binding and the new session survives
	req.False(wasBound)
	bound, ok := registry.BoundConnection(user.ID)
	req.True(ok)
	req.Same(second, bound)

	// And when the live connection disconnects it does own the binding
	_, wasBound = registry.Deregister(second)
	req.True(wasBound)
	_, ok = registry.BoundConnection(user.ID)
	req.False(ok)
}

func TestRegistry_Deregister_Cleans_Subscriptions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newTestConnection()
	registry.Register(conn)
	registry.Subscribe("general", conn)
	conn.setRoom("general")
	private := domain.PrivateRoom("a", "b")
	registry.Subscribe(private, conn)
	conn.addPrivate(private)

	registry.Deregister(conn)

	req.Nil(registry.RoomConnections("general"))
	req.Nil(registry.RoomConnections(private))
	req.Empty(registry.Connections())
}
