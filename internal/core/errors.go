package core

import "errors"

// Error codes reported to clients.
const (
	ErrCodeEmptyMessage = "empty_message"
	ErrCodeStorage      = "storage_error"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeBadRequest   = "bad_request"
)

var (
	// ErrEmptyMessage rejects a text submission that is empty after trimming.
	// Nothing is persisted and nothing is broadcast.
	ErrEmptyMessage = errors.New("empty message")
	// ErrMissingImage rejects an image submission without a blob reference.
	ErrMissingImage = errors.New("missing image reference")
)

// CoreError wraps a code and human-readable message for the wire.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}
