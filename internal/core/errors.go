package core

// Error codes for domain errors. Every code is recoverable at the
// connection: it is reported only to the originating client and leaves the
// connection and its room membership untouched.
const (
	ErrCodeUnauthenticated = "unauthenticated"
	ErrCodeRoomNotFound    = "room_not_found"
	ErrCodeNotInRoom       = "not_in_room"
	ErrCodeForbidden       = "forbidden"
	ErrCodeInvalidContent  = "invalid_content"
	ErrCodeContentTooLong  = "content_too_long"
	ErrCodeUnknownEvent    = "unknown_event"
	ErrCodeInternal        = "internal_error"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
