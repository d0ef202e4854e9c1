package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"chat-hub/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newMessageRepository(t *testing.T) MessageRepository {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMessageRepository(db, slog.Default())
}

func seedRoom(t *testing.T, repository MessageRepository, room domain.RoomID, count int) []domain.Message {
	base := time.Now().UTC().Add(-time.Hour)
	messages := make([]domain.Message, 0, count)
	for i := 0; i < count; i++ {
		stored, err := repository.Store(domain.Message{
			ID:        uuid.New(),
			Room:      room,
			SenderID:  "sender-1",
			Content:   fmt.Sprintf("message %d", i),
			Type:      domain.MessageText,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
		messages = append(messages, stored)
	}
	return messages
}

func TestMessageRepository_FindByRoom_Newest_First(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t)
	seeded := seedRoom(t, repository, "general", 5)

	fetched, err := repository.FindByRoom("general", 0, 10)
	req.NoError(err)
	req.Len(fetched, 5)
	for i, m := range fetched {
		req.Equal(seeded[len(seeded)-1-i].Content, m.Content)
	}
}

func TestMessageRepository_Skip_And_Limit(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t)
	seedRoom(t, repository, "general", 7)

	// First page: the three newest
	page, err := repository.FindByRoom("general", 0, 3)
	req.NoError(err)
	req.Len(page, 3)
	req.Equal("message 6", page[0].Content)
	req.Equal("message 4", page[2].Content)

	// Second page continues where the first stopped
	page, err = repository.FindByRoom("general", 3, 3)
	req.NoError(err)
	req.Len(page, 3)
	req.Equal("message 3", page[0].Content)
	req.Equal("message 1", page[2].Content)

	// Last page is short
	page, err = repository.FindByRoom("general", 6, 3)
	req.NoError(err)
	req.Len(page, 1)
	req.Equal("message 0", page[0].Content)
}

func TestMessageRepository_Rooms_Are_Isolated(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t)
	seedRoom(t, repository, "general", 3)
	seedRoom(t, repository, domain.PrivateRoom("a", "b"), 2)

	general, err := repository.FindByRoom("general", 0, 10)
	req.NoError(err)
	req.Len(general, 3)

	private, err := repository.FindByRoom(domain.PrivateRoom("a", "b"), 0, 10)
	req.NoError(err)
	req.Len(private, 2)

	empty, err := repository.FindByRoom("nobody-here", 0, 10)
	req.NoError(err)
	req.Empty(empty)
}

func TestMessageRepository_RoundTrip_Preserves_Fields(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t)

	original := domain.Message{
		ID:        uuid.New(),
		Room:      "general",
		SenderID:  "sender-1",
		Content:   "photo.png|/uploads/abc.png",
		Type:      domain.MessageFile,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	_, err := repository.Store(original)
	req.NoError(err)

	fetched, err := repository.FindByRoom("general", 0, 1)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal(original.ID, fetched[0].ID)
	req.Equal(original.Content, fetched[0].Content)
	req.Equal(original.Type, fetched[0].Type)
	req.True(original.CreatedAt.Equal(fetched[0].CreatedAt))
}

func TestOldest_Reverses_Without_Mutating(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t)
	seedRoom(t, repository, "general", 3)

	newest, err := repository.FindByRoom("general", 0, 10)
	req.NoError(err)

	oldest := Oldest(newest)
	req.Equal("message 0", oldest[0].Content)
	req.Equal("message 2", oldest[2].Content)
	// The input page keeps its newest-first order
	req.Equal("message 2", newest[0].Content)
}
