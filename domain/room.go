package domain

import "strings"

// RoomID identifies either a broadcast topic ("general") or a canonical
// private conversation. The colon is reserved as the storage key
// separator and must never appear in a room id.
type RoomID string

const privateRoomPrefix = "private_"

// DefaultRoom is the broadcast topic joined when none is given.
const DefaultRoom RoomID = "general"

// PrivateRoom builds the canonical room id for a two-party conversation.
// The participant ids are sorted lexicographically so the result is
// identical regardless of which side initiates.
func PrivateRoom(a, b string) RoomID {
	if b < a {
		a, b = b, a
	}
	return RoomID(privateRoomPrefix + a + "_" + b)
}

func (r RoomID) IsPrivate() bool {
	return strings.HasPrefix(string(r), privateRoomPrefix)
}

// Valid rejects empty ids and ids that would break the storage key layout.
func (r RoomID) Valid() bool {
	return r != "" && !strings.ContainsRune(string(r), ':')
}
