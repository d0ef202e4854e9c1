// Package hub contains the coordination core: session bindings, room and
// private routing, presence, rate limiting and typing relay. Everything
// here is transport-agnostic; connections reach it as *Connection and
// leave it through their EventSink.
package hub

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// TokenVerifier is the credential issuance collaborator contract: it
// resolves a token to a user id or fails.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// Moderator censors message content before it is persisted.
type Moderator interface {
	Censor(content string) (censored string, found []string)
}

type Options struct {
	PageSize       int
	DirectoryLimit int
	RateLimit      int
	RateWindow     time.Duration
}

func DefaultOptions() Options {
	return Options{
		PageSize:       20,
		DirectoryLimit: 50,
		RateLimit:      30,
		RateWindow:     time.Minute,
	}
}

type Hub struct {
	log      *slog.Logger
	registry *Registry
	limiter  *RateLimiter
	presence *Presence
	messages repositories.IMessageRepository
	users    repositories.IUserRepository
	verifier TokenVerifier
	// moderator is optional; nil disables censoring.
	moderator Moderator
	pageSize  int
	dirLimit  int

	// roomLocks serializes persist+multicast per room so delivery order
	// matches acceptance order. authLocks serializes authentication per
	// user so exactly one binding survives concurrent attempts.
	roomLocks *keyedMutex
	authLocks *keyedMutex
}

func New(log *slog.Logger, registry *Registry, messages repositories.IMessageRepository,
	users repositories.IUserRepository, verifier TokenVerifier, moderator Moderator,
	opts Options) *Hub {
	return &Hub{
		log:       log,
		registry:  registry,
		limiter:   NewRateLimiter(opts.RateLimit, opts.RateWindow),
		presence:  NewPresence(users, log),
		messages:  messages,
		users:     users,
		verifier:  verifier,
		moderator: moderator,
		pageSize:  opts.PageSize,
		dirLimit:  opts.DirectoryLimit,
		roomLocks: newKeyedMutex(),
		authLocks: newKeyedMutex(),
	}
}

// Limiter exposes the rate table for the janitor worker.
func (h *Hub) Limiter() *RateLimiter { return h.limiter }

// Register announces a freshly accepted, unauthenticated connection.
func (h *Hub) Register(conn *Connection) {
	h.registry.Register(conn)
}

// Dispatch routes one inbound command to its operation. The switch is
// exhaustive over the closed command set; the transport already rejected
// anything else.
func (h *Hub) Dispatch(ctx context.Context, conn *Connection, cmd domain.Command) {
	switch c := cmd.(type) {
	case domain.AuthenticateCommand:
		h.Authenticate(ctx, conn, c.Token)
	case domain.JoinRoomCommand:
		h.JoinRoom(ctx, conn, c.Room)
	case domain.LoadMoreCommand:
		h.LoadMore(ctx, conn, c.Room, c.Page)
	case domain.SendMessageCommand:
		h.SendMessage(ctx, conn, c.Room, c.Content, c.Type)
	case domain.JoinPrivateCommand:
		h.JoinPrivate(ctx, conn, c.RecipientID)
	case domain.SendPrivateCommand:
		h.SendPrivate(ctx, conn, c.RecipientID, c.Content)
	case domain.TypingStartCommand:
		h.Typing(ctx, conn, c.Room, true)
	case domain.TypingStopCommand:
		h.Typing(ctx, conn, c.Room, false)
	case domain.PrivateTypingStartCommand:
		h.PrivateTyping(ctx, conn, c.RecipientID, true)
	case domain.PrivateTypingStopCommand:
		h.PrivateTyping(ctx, conn, c.RecipientID, false)
	case domain.GetUsersCommand:
		h.GetUsers(ctx, conn)
	case domain.LogoutCommand:
		h.Logout(ctx, conn)
	}
}

// Authenticate validates the credential and activates the session. On
// success the previously bound connection for the same user, if any, is
// force-closed: last authentication wins.
func (h *Hub) Authenticate(ctx context.Context, conn *Connection, token string) {
	userID, err := h.verifier.Verify(token)
	if err != nil {
		conn.Send(ctx, event.AuthError{Reason: errors.ErrAuthenticationFailed.Error()})
		return
	}
	user, err := h.users.FindByID(userID)
	if err != nil {
		conn.Send(ctx, event.AuthError{Reason: errors.ErrAuthenticationFailed.Error()})
		return
	}

	unlock := h.authLocks.Lock(userID)
	// Re-authenticating as a different user is an implicit logout of the
	// old identity; without this the old binding would go stale and keep
	// routing that user's private traffic here.
	if prevUser, ok := conn.User(); ok && prevUser.ID != userID {
		if h.registry.ReleaseBinding(conn) {
			h.presence.MarkOffline(prevUser.ID)
			h.broadcast(ctx, conn.ID, event.UserOffline{UserID: prevUser.ID})
		}
	}
	if prev := h.registry.Bind(userID, conn); prev != nil {
		h.log.Info("superseding session", "user_id", userID, "old_conn", prev.ID, "new_conn", conn.ID)
		prev.Close()
	}
	user = h.presence.MarkOnline(user)
	conn.Bind(user)
	unlock()

	conn.Send(ctx, event.Authenticated{User: event.ToUserView(user)})

	// Directory snapshot for the caller, then presence propagation:
	// incremental to the others, full snapshot to everyone as
	// reconciliation.
	if others, err := h.users.FindExcluding(userID, h.dirLimit); err == nil {
		conn.Send(ctx, event.UsersList{Users: event.ToUserViews(others)})
	} else {
		h.log.Error("directory query failed", "user_id", userID, "error", err)
	}
	h.broadcast(ctx, conn.ID, event.UserOnline{UserID: user.ID, Username: user.Username})
	h.broadcastDirectory(ctx, "")
}

// JoinRoom switches the connection's broadcast subscription and returns
// the most recent history page, oldest first.
func (h *Hub) JoinRoom(ctx context.Context, conn *Connection, room domain.RoomID) {
	if _, ok := conn.User(); !ok {
		h.reject(ctx, conn, errors.ErrAuthorizationRequired)
		return
	}
	if !room.Valid() {
		h.reject(ctx, conn, errors.ErrInvalidRoom)
		return
	}

	if prev := conn.Room(); prev != "" && prev != room {
		h.registry.Unsubscribe(prev, conn)
	}
	h.registry.Subscribe(room, conn)
	conn.setRoom(room)

	page, hasMore, err := h.historyPage(room, 0)
	if err != nil {
		h.log.Error("room history query failed", "room", room, "error", err)
		h.reject(ctx, conn, stderrors.New("failed to load room messages"))
		return
	}
	conn.Send(ctx, event.RoomMessages{Messages: page, HasMore: hasMore})
}

// LoadMore returns the page at offset page*pageSize. Pages count from
// zero for the page JoinRoom already returned, so callers start at 1;
// within one paging sequence no message is ever returned twice.
func (h *Hub) LoadMore(ctx context.Context, conn *Connection, room domain.RoomID, page int) {
	if _, ok := conn.User(); !ok {
		h.reject(ctx, conn, errors.ErrAuthorizationRequired)
		return
	}
	if !room.Valid() {
		h.reject(ctx, conn, errors.ErrInvalidRoom)
		return
	}
	if page < 0 {
		h.reject(ctx, conn, errors.ErrInvalidPage)
		return
	}

	messages, hasMore, err := h.historyPage(room, page*h.pageSize)
	if err != nil {
		h.log.Error("history query failed", "room", room, "page", page, "error", err)
		h.reject(ctx, conn, stderrors.New("failed to load more messages"))
		return
	}
	conn.Send(ctx, event.MoreMessages{Messages: messages, HasMore: hasMore, NextPage: page + 1})
}

// SendMessage validates, rate limits, persists and multicasts a message
// to the room's current subscribers in acceptance order.
func (h *Hub) SendMessage(ctx context.Context, conn *Connection, room domain.RoomID,
	content string, messageType domain.MessageType) {
	sender, ok := conn.User()
	if !ok {
		h.reject(ctx, conn, errors.ErrAuthorizationRequired)
		return
	}
	if domain.IsBlank(content) {
		h.reject(ctx, conn, errors.ErrEmptyContent)
		return
	}
	if room == "" {
		room = domain.DefaultRoom
	}
	if !room.Valid() {
		h.reject(ctx, conn, errors.ErrInvalidRoom)
		return
	}
	if messageType == "" {
		messageType = domain.MessageText
	}
	if !messageType.Valid() {
		h.reject(ctx, conn, errors.ErrInvalidMessageType)
		return
	}
	if !h.limiter.Allow(sender.ID) {
		h.reject(ctx, conn, errors.ErrRateLimitExceeded)
		return
	}

	content = h.censor(sender.ID, content, messageType)

	// The room lock spans timestamping, persist and multicast: the stamp
	// is the storage ordering key, so it is assigned in acceptance order
	// and no later message for the same room can overtake this one.
	unlock := h.roomLocks.Lock(string(room))
	defer unlock()

	stored, err := h.messages.Store(newMessage(sender.ID, room, content, messageType))
	if err != nil {
		h.reject(ctx, conn, stderrors.New("failed to send message"))
		return
	}
	view := toMessageView(stored, event.ToUserView(sender))
	for _, subscriber := range h.registry.RoomConnections(room) {
		subscriber.Send(ctx, event.NewMessage{Message: view})
	}
}

// JoinPrivate subscribes the caller to the canonical two-party room and
// returns its first history page.
func (h *Hub) JoinPrivate(ctx context.Context, conn *Connection, recipientID string) {
	self, ok := conn.User()
	if !ok {
		h.reject(ctx, conn, errors.ErrAuthorizationRequired)
		return
	}
	if recipientID == "" {
		h.reject(ctx, conn, stderrors.New("recipient id required"))
		return
	}
	if _, err := h.users.FindByID(recipientID); err != nil {
		h.rejectLookup(ctx, conn, err)
		return
	}

	room := domain.PrivateRoom(self.ID, recipientID)
	h.registry.Subscribe(room, conn)
	conn.addPrivate(room)

	page, hasMore, err := h.historyPage(room, 0)
	if err != nil {
		h.log.Error("private history query failed", "room", room, "error", err)
		h.reject(ctx, conn, stderrors.New("failed to join private conversation"))
		return
	}
	conn.Send(ctx, event.PrivateMessages{
		Messages:    page,
		Room:        room,
		RecipientID: recipientID,
		HasMore:     hasMore,
	})
	// The unread counter belongs to the consuming UI; the core only
	// signals that it may be cleared.
	conn.Send(ctx, event.ConversationRead{RecipientID: recipientID})
}

// SendPrivate persists a message in the canonical room and delivers it
// point-to-point: to the recipient's live connection when one exists,
// and always echoed back to the sender. Offline recipients pick the
// message up from history on their next JoinPrivate.
func (h *Hub) SendPrivate(ctx context.Context, conn *Connection, recipientID, content string) {
	sender, ok := conn.User()
	if !ok {
		h.reject(ctx, conn, errors.ErrAuthorizationRequired)
		return
	}
	if recipientID == "" || domain.IsBlank(content) {
		h.reject(ctx, conn, errors.ErrEmptyContent)
		return
	}
	if _, err := h.users.FindByID(recipientID); err != nil {
		h.rejectLookup(ctx, conn, err)
		return
	}

	room := domain.PrivateRoom(sender.ID, recipientID)
	content = h.censor(sender.ID, content, domain.MessageText)

	unlock := h.roomLocks.Lock(string(room))
	defer unlock()

	stored, err := h.messages.Store(newMessage(sender.ID, room, content, domain.MessageText))
	if err != nil {
		h.reject(ctx, conn, stderrors.New("failed to send private message"))
		return
	}
	view := toMessageView(stored, event.ToUserView(sender))
	if recipient, ok := h.registry.BoundConnection(recipientID); ok {
		recipient.Send(ctx, event.NewPrivateMessage{Message: view})
	}
	conn.Send(ctx, event.NewPrivateMessage{Message: view})
}

// Typing relays composing state to a room's other subscribers. The core
// performs no expiry scheduling; senders re-emit or stop, receivers own
// their timers.
func (h *Hub) Typing(ctx context.Context, conn *Connection, room domain.RoomID, composing bool) {
	user, ok := conn.User()
	if !ok || !room.Valid() {
		return
	}
	for _, subscriber := range h.registry.RoomConnections(room) {
		if subscriber.ID == conn.ID {
			continue
		}
		if composing {
			subscriber.Send(ctx, event.UserTyping{UserID: user.ID, Username: user.Username, Room: room})
		} else {
			subscriber.Send(ctx, event.UserStopTyping{UserID: user.ID, Room: room})
		}
	}
}

// PrivateTyping relays composing state to the recipient's bound
// connection only.
func (h *Hub) PrivateTyping(ctx context.Context, conn *Connection, recipientID string, composing bool) {
	user, ok := conn.User()
	if !ok || recipientID == "" {
		return
	}
	recipient, ok := h.registry.BoundConnection(recipientID)
	if !ok {
		return
	}
	if composing {
		recipient.Send(ctx, event.PrivateTyping{UserID: user.ID, Username: user.Username})
	} else {
		recipient.Send(ctx, event.PrivateStopTyping{UserID: user.ID})
	}
}

// GetUsers returns the directory snapshot excluding the caller.
func (h *Hub) GetUsers(ctx context.Context, conn *Connection) {
	user, ok := conn.User()
	if !ok {
		conn.Send(ctx, event.AuthError{Reason: errors.ErrAuthorizationRequired.Error()})
		return
	}
	users, err := h.users.FindExcluding(user.ID, h.dirLimit)
	if err != nil {
		h.log.Error("directory query failed", "user_id", user.ID, "error", err)
		h.reject(ctx, conn, stderrors.New("failed to get users list"))
		return
	}
	conn.Send(ctx, event.UsersList{Users: event.ToUserViews(users)})
}

// Logout explicitly ends the session: offline transition, presence
// propagation with a reconciliation snapshot, then the connection is
// closed.
func (h *Hub) Logout(ctx context.Context, conn *Connection) {
	user, ok := conn.User()
	if ok && h.registry.ReleaseBinding(conn) {
		h.presence.MarkOffline(user.ID)
		h.broadcast(ctx, conn.ID, event.UserOffline{UserID: user.ID})
		h.broadcastDirectory(ctx, conn.ID)
	}
	conn.Close()
}

// Disconnect is invoked by the transport when a connection's read loop
// ends. Only the connection still owning its user's binding triggers the
// offline transition, so a superseded session never flips its former
// user offline.
func (h *Hub) Disconnect(ctx context.Context, conn *Connection) {
	userID, wasBound := h.registry.Deregister(conn)
	conn.Close()
	if !wasBound {
		return
	}
	h.presence.MarkOffline(userID)
	h.broadcast(ctx, conn.ID, event.UserOffline{UserID: userID})
}

// reject reports a rejection to the originating connection only.
func (h *Hub) reject(ctx context.Context, conn *Connection, err error) {
	conn.Send(ctx, event.Error{Reason: err.Error()})
}

func (h *Hub) rejectLookup(ctx context.Context, conn *Connection, err error) {
	if stderrors.Is(err, errors.ErrNotFound) {
		h.reject(ctx, conn, errors.ErrRecipientNotFound)
		return
	}
	h.log.Error("recipient lookup failed", "error", err)
	h.reject(ctx, conn, stderrors.New("operation failed"))
}

func (h *Hub) broadcast(ctx context.Context, excludeConnID string, e event.DomainEvent) {
	for _, c := range h.registry.Connections() {
		if c.ID == excludeConnID {
			continue
		}
		c.Send(ctx, e)
	}
}

// broadcastDirectory sends the full-directory reconciliation snapshot.
func (h *Hub) broadcastDirectory(ctx context.Context, excludeConnID string) {
	users, err := h.users.FindExcluding("", h.dirLimit)
	if err != nil {
		h.log.Error("directory snapshot failed", "error", err)
		return
	}
	h.broadcast(ctx, excludeConnID, event.UsersListUpdate{Users: event.ToUserViews(users)})
}

func (h *Hub) censor(senderID, content string, messageType domain.MessageType) string {
	if h.moderator == nil || messageType != domain.MessageText {
		return content
	}
	censored, found := h.moderator.Censor(content)
	if len(found) > 0 {
		h.log.Warn("message censored", "sender_id", senderID, "words", len(found))
	}
	return censored
}

// newMessage stamps a message. Callers hold the room lock: CreatedAt is
// the persisted ordering key, so the stamp must follow acceptance order.
func newMessage(senderID string, room domain.RoomID, content string,
	messageType domain.MessageType) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		Room:      room,
		SenderID:  senderID,
		Content:   content,
		Type:      messageType,
		CreatedAt: time.Now().UTC(),
	}
}

// historyPage fetches one newest-first page and returns it oldest-first
// with senders resolved for display.
func (h *Hub) historyPage(room domain.RoomID, skip int) ([]event.MessageView, bool, error) {
	messages, err := h.messages.FindByRoom(room, skip, h.pageSize)
	if err != nil {
		return nil, false, err
	}
	hasMore := len(messages) == h.pageSize

	senders := make(map[string]event.UserView)
	for _, id := range lo.Uniq(lo.Map(messages, func(m domain.Message, _ int) string {
		return m.SenderID
	})) {
		user, err := h.users.FindByID(id)
		if err != nil {
			h.log.Warn("sender lookup failed", "sender_id", id, "error", err)
			senders[id] = event.UserView{ID: id, Username: "unknown"}
			continue
		}
		senders[id] = event.ToUserView(user)
	}

	oldest := repositories.Oldest(messages)
	views := lo.Map(oldest, func(m domain.Message, _ int) event.MessageView {
		return toMessageView(m, senders[m.SenderID])
	})
	return views, hasMore, nil
}

func toMessageView(m domain.Message, sender event.UserView) event.MessageView {
	return event.MessageView{
		ID:        m.ID,
		Content:   m.Content,
		Sender:    sender,
		Room:      m.Room,
		Type:      m.Type,
		CreatedAt: m.CreatedAt,
	}
}
