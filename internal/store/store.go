package store

import (
	"context"
	"errors"
	"time"
)

// Message is one persisted chat event row. Text and ImageURL are mutually
// exclusive; the empty string marks the absent variant (stored as NULL).
type Message struct {
	ID        int64
	User      string
	Text      string
	ImageURL  string
	MimeType  string
	CreatedAt time.Time
}

// MessageStore is the durable, append-only, ordered log of chat events.
// No update or delete operations exist by contract.
type MessageStore interface {
	// Append persists msg and assigns its ID. IDs are strictly increasing
	// in append order and are never reused.
	Append(ctx context.Context, msg *Message) error

	// ListAll returns every persisted message ascending by id.
	ListAll(ctx context.Context) ([]*Message, error)

	// Close closes the underlying database connection.
	Close() error
}

var (
	// ErrPayloadTooLarge rejects a blob exceeding the store's size cap.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrExtensionNotAllowed rejects a filename outside the image allowlist.
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	// ErrBlobNotFound reports an unknown blob reference.
	ErrBlobNotFound = errors.New("blob not found")
)

// BlobStore stores uploaded image bytes addressable by an opaque reference.
type BlobStore interface {
	// Put durably stores data and returns a new reference. It fails with
	// ErrPayloadTooLarge or ErrExtensionNotAllowed before writing anything.
	Put(ctx context.Context, data []byte, filename string) (string, error)

	// Get returns the stored bytes and their content type, or ErrBlobNotFound.
	Get(ctx context.Context, ref string) ([]byte, string, error)
}
