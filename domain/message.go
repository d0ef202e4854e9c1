// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once persisted.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageText MessageType = "text"
	MessageFile MessageType = "file"
)

// fileContentSeparator joins the original file name and its URL inside
// the content of a file message.
const fileContentSeparator = "|"

// Message represents an immutable chat event.
// The ordering key within a room is CreatedAt.
type Message struct {
	ID        uuid.UUID
	Room      RoomID
	SenderID  string
	Content   string
	Type      MessageType
	CreatedAt time.Time
}

func (t MessageType) Valid() bool {
	return t == MessageText || t == MessageFile
}

// IsBlank reports whether the content carries nothing but whitespace.
func IsBlank(content string) bool {
	return strings.TrimSpace(content) == ""
}

// FileContent encodes an uploaded file reference as message content.
func FileContent(originalName, url string) string {
	return originalName + fileContentSeparator + url
}

// ParseFileContent splits a file message content back into its original
// name and URL. The name may itself contain the separator, so the split
// happens on the last occurrence.
func ParseFileContent(content string) (originalName, url string, ok bool) {
	idx := strings.LastIndex(content, fileContentSeparator)
	if idx <= 0 || idx == len(content)-1 {
		return "", "", false
	}
	return content[:idx], content[idx+1:], true
}
