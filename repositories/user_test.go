package repositories

import (
	"fmt"
	"testing"
	"time"

	"chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newUserRepository(t *testing.T) *UserRepository {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepository(db)
}

func TestUserRepository_Create_And_Find(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	created, err := repository.Create("alice", "alice@example.com", "cat.png", "hash-1")
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.False(created.IsOnline)

	byID, err := repository.FindByID(created.ID)
	req.NoError(err)
	req.Equal("alice", byID.Username)
	req.Equal("cat.png", byID.Avatar)

	byEmail, hash, err := repository.FindByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(created.ID, byEmail.ID)
	req.Equal("hash-1", hash)
}

func TestUserRepository_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	_, err := repository.Create("alice", "alice@example.com", "", "hash-1")
	req.NoError(err)

	_, err = repository.Create("alice2", "alice@example.com", "", "hash-2")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_Unknown_Lookups(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	_, err := repository.FindByID("missing")
	req.ErrorIs(err, errors.ErrNotFound)

	_, _, err = repository.FindByEmail("nobody@example.com")
	req.ErrorIs(err, errors.ErrNotFound)

	err = repository.UpdatePresence("missing", true, time.Now())
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestUserRepository_UpdatePresence(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)
	created, err := repository.Create("alice", "alice@example.com", "", "hash-1")
	req.NoError(err)

	seen := time.Now().UTC().Truncate(time.Millisecond)
	req.NoError(repository.UpdatePresence(created.ID, true, seen))

	fetched, err := repository.FindByID(created.ID)
	req.NoError(err)
	req.True(fetched.IsOnline)
	req.True(seen.Equal(fetched.LastSeen))
}

func TestUserRepository_FindExcluding_Sorts_And_Bounds(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)
	base := time.Now().UTC().Add(-time.Hour)

	self, err := repository.Create("self", "self@example.com", "", "hash")
	req.NoError(err)

	ids := make(map[string]string)
	for i := 0; i < 4; i++ {
		username := fmt.Sprintf("user%d", i)
		created, err := repository.Create(username, username+"@example.com", "", "hash")
		req.NoError(err)
		ids[username] = created.ID
	}
	// user1 and user3 are online, user3 seen more recently
	req.NoError(repository.UpdatePresence(ids["user0"], false, base.Add(1*time.Minute)))
	req.NoError(repository.UpdatePresence(ids["user1"], true, base.Add(2*time.Minute)))
	req.NoError(repository.UpdatePresence(ids["user2"], false, base.Add(3*time.Minute)))
	req.NoError(repository.UpdatePresence(ids["user3"], true, base.Add(4*time.Minute)))

	users, err := repository.FindExcluding(self.ID, 10)
	req.NoError(err)
	req.Len(users, 4)
	req.Equal("user3", users[0].Username)
	req.Equal("user1", users[1].Username)
	// Offline users follow, most recently seen first
	req.Equal("user2", users[2].Username)
	req.Equal("user0", users[3].Username)

	// The limit truncates after sorting
	bounded, err := repository.FindExcluding(self.ID, 2)
	req.NoError(err)
	req.Len(bounded, 2)
	req.Equal("user3", bounded[0].Username)

	// An empty selfID returns everyone
	all, err := repository.FindExcluding("", 10)
	req.NoError(err)
	req.Len(all, 5)
}
