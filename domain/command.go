package domain

// Command is the closed set of inbound intents a connection can submit.
// The transport decodes wire payloads into exactly one of these variants
// and the dispatcher switches over them exhaustively; there is no
// string-keyed dispatch past the decoding boundary.
type Command interface {
	isCommand()
}

type AuthenticateCommand struct {
	Token string
}

type JoinRoomCommand struct {
	Room RoomID
}

type LoadMoreCommand struct {
	Room RoomID
	Page int
}

type SendMessageCommand struct {
	Room    RoomID
	Content string
	Type    MessageType
}

type JoinPrivateCommand struct {
	RecipientID string
}

type SendPrivateCommand struct {
	RecipientID string
	Content     string
}

type TypingStartCommand struct {
	Room RoomID
}

type TypingStopCommand struct {
	Room RoomID
}

type PrivateTypingStartCommand struct {
	RecipientID string
}

type PrivateTypingStopCommand struct {
	RecipientID string
}

type GetUsersCommand struct{}

type LogoutCommand struct{}

func (AuthenticateCommand) isCommand()       {}
func (JoinRoomCommand) isCommand()           {}
func (LoadMoreCommand) isCommand()           {}
func (SendMessageCommand) isCommand()        {}
func (JoinPrivateCommand) isCommand()        {}
func (SendPrivateCommand) isCommand()        {}
func (TypingStartCommand) isCommand()        {}
func (TypingStopCommand) isCommand()         {}
func (PrivateTypingStartCommand) isCommand() {}
func (PrivateTypingStopCommand) isCommand()  {}
func (GetUsersCommand) isCommand()           {}
func (LogoutCommand) isCommand()             {}
