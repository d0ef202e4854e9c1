// Package event defines the closed set of outbound events the core can
// emit to a connection. Each variant is its own wire payload; Name()
// gives the event type consumers subscribe to.
package event

import (
	"time"

	"chat-hub/domain"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type DomainEvent interface {
	Name() string
}

// UserView is the directory shape shared with consumers.
type UserView struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar,omitempty"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}

// MessageView carries a message with its sender resolved for display.
type MessageView struct {
	ID        uuid.UUID          `json:"id"`
	Content   string             `json:"content"`
	Sender    UserView           `json:"sender"`
	Room      domain.RoomID      `json:"room"`
	Type      domain.MessageType `json:"messageType"`
	CreatedAt time.Time          `json:"createdAt"`
}

func ToUserView(u domain.User) UserView {
	return UserView{
		ID:       u.ID,
		Username: u.Username,
		Avatar:   u.Avatar,
		IsOnline: u.IsOnline,
		LastSeen: u.LastSeen,
	}
}

func ToUserViews(users []domain.User) []UserView {
	return lo.Map(users, func(u domain.User, _ int) UserView {
		return ToUserView(u)
	})
}

type Authenticated struct {
	User UserView `json:"user"`
}

type AuthError struct {
	Reason string `json:"reason"`
}

type RoomMessages struct {
	Messages []MessageView `json:"messages"`
	HasMore  bool          `json:"hasMore"`
}

type MoreMessages struct {
	Messages []MessageView `json:"messages"`
	HasMore  bool          `json:"hasMore"`
	NextPage int           `json:"nextPage"`
}

type NewMessage struct {
	Message MessageView `json:"message"`
}

type PrivateMessages struct {
	Messages    []MessageView `json:"messages"`
	Room        domain.RoomID `json:"room"`
	RecipientID string        `json:"recipientId"`
	HasMore     bool          `json:"hasMore"`
}

type NewPrivateMessage struct {
	Message MessageView `json:"message"`
}

type UsersList struct {
	Users []UserView `json:"users"`
}

// UsersListUpdate is the optional full-directory reconciliation snapshot
// broadcast after authentication and logout.
type UsersListUpdate struct {
	Users []UserView `json:"users"`
}

type UserOnline struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type UserOffline struct {
	UserID string `json:"userId"`
}

type UserTyping struct {
	UserID   string        `json:"userId"`
	Username string        `json:"username"`
	Room     domain.RoomID `json:"room"`
}

type UserStopTyping struct {
	UserID string        `json:"userId"`
	Room   domain.RoomID `json:"room"`
}

type PrivateTyping struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type PrivateStopTyping struct {
	UserID string `json:"userId"`
}

// ConversationRead signals the caller's unread counter for a recipient
// may be cleared. The counter itself belongs to the consuming UI.
type ConversationRead struct {
	RecipientID string `json:"recipientId"`
}

type Error struct {
	Reason string `json:"reason"`
}

func (Authenticated) Name() string     { return "authenticated" }
func (AuthError) Name() string         { return "auth_error" }
func (RoomMessages) Name() string      { return "room_messages" }
func (MoreMessages) Name() string      { return "more_messages" }
func (NewMessage) Name() string        { return "new_message" }
func (PrivateMessages) Name() string   { return "private_messages" }
func (NewPrivateMessage) Name() string { return "new_private_message" }
func (UsersList) Name() string         { return "users_list" }
func (UsersListUpdate) Name() string   { return "users_list_update" }
func (UserOnline) Name() string        { return "user_online" }
func (UserOffline) Name() string       { return "user_offline" }
func (UserTyping) Name() string        { return "user_typing" }
func (UserStopTyping) Name() string    { return "user_stop_typing" }
func (PrivateTyping) Name() string     { return "private_typing" }
func (PrivateStopTyping) Name() string { return "private_stop_typing" }
func (ConversationRead) Name() string  { return "conversation_read" }
func (Error) Name() string             { return "error" }
