package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPrivateRoom_Symmetry(t *testing.T) {
	req := require.New(t)

	// The canonical id must not depend on which side initiates.
	for i := 0; i < 50; i++ {
		a := uuid.NewString()
		b := uuid.NewString()
		req.Equal(PrivateRoom(a, b), PrivateRoom(b, a))
	}
}

func TestPrivateRoom_IsPrivate(t *testing.T) {
	req := require.New(t)

	room := PrivateRoom("alice", "bob")
	req.Equal(RoomID("private_alice_bob"), room)
	req.True(room.IsPrivate())
	req.False(DefaultRoom.IsPrivate())
}

func TestRoomID_Valid(t *testing.T) {
	req := require.New(t)

	req.True(RoomID("general").Valid())
	req.True(PrivateRoom("a", "b").Valid())
	req.False(RoomID("").Valid())
	// The colon is the storage key separator.
	req.False(RoomID("general:sub").Valid())
}
