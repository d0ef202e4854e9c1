package errors

import "fmt"

var (
	// Rejections reported only to the originating connection.
	ErrAuthenticationFailed  = fmt.Errorf("authentication failed")
	ErrAuthorizationRequired = fmt.Errorf("not authenticated")
	ErrEmptyContent          = fmt.Errorf("message content cannot be empty")
	ErrInvalidRoom           = fmt.Errorf("invalid room")
	ErrInvalidPage           = fmt.Errorf("invalid page")
	ErrInvalidMessageType    = fmt.Errorf("invalid message type")
	ErrRateLimitExceeded     = fmt.Errorf("rate limit exceeded, please slow down")
	ErrRecipientNotFound     = fmt.Errorf("recipient not found")
	ErrNotFound              = fmt.Errorf("not found")
	ErrStorage               = fmt.Errorf("storage failure")

	// Account service errors.
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// Upload service errors.
	ErrFileTooLarge       = fmt.Errorf("file too large")
	ErrFileTypeNotAllowed = fmt.Errorf("file type not allowed")

	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
)
