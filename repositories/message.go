package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chat-hub/domain"
	"chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	Store(message domain.Message) (domain.Message, error)
	// FindByRoom returns up to limit messages for a room, newest first,
	// skipping the given number of newer messages.
	FindByRoom(room domain.RoomID, skip, limit int) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// diskMessage is the stored shape of a message. Values are JSON; the
// chronology lives in the key, not the value.
type diskMessage struct {
	ID       uuid.UUID          `json:"id"`
	Room     domain.RoomID      `json:"room"`
	SenderID string             `json:"senderId"`
	Content  string             `json:"content"`
	Type     domain.MessageType `json:"type"`
	At       time.Time          `json:"at"`
}

// messageKey formats "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages arrive at the same nanosecond.
func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.Room, m.CreatedAt.UnixNano(), m.ID))
}

// Store persists a message and returns it as stored.
func (m MessageRepository) Store(message domain.Message) (domain.Message, error) {
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), bytes)
	})
	if err != nil {
		m.log.Error("message store failed", "room", message.Room, "error", err)
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return message, nil
}

// FindByRoom walks the room's key range in reverse so the padded
// timestamps come out newest first. The iterator seeks past the prefix
// upper bound, skips the requested offset and then collects one page.
func (m MessageRepository) FindByRoom(room domain.RoomID, skip, limit int) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", room))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek to the newest possible key for the room, then iterate
		// backwards in time.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		skipped := 0
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if skipped < skip {
				skipped++
				continue
			}
			if len(raw) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		m.log.Error("message query failed", "room", room, "error", err)
		return nil, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		var dm diskMessage
		if err = json.Unmarshal(b, &dm); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrStorage, err)
		}
		messages = append(messages, toMessage(dm))
	}
	return messages, nil
}

func fromMessage(m domain.Message) diskMessage {
	return diskMessage{
		ID:       m.ID,
		Room:     m.Room,
		SenderID: m.SenderID,
		Content:  m.Content,
		Type:     m.Type,
		At:       m.CreatedAt.UTC(),
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:        dm.ID,
		Room:      dm.Room,
		SenderID:  dm.SenderID,
		Content:   dm.Content,
		Type:      dm.Type,
		CreatedAt: dm.At.UTC(),
	}
}

// Oldest reverses a newest-first page into display order.
func Oldest(messages []domain.Message) []domain.Message {
	return lo.Reverse(append([]domain.Message{}, messages...))
}
