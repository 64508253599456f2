package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colimarl/groupchat-server/internal/store"
)

const (
	// DefaultUser labels submissions with an absent or blank username.
	DefaultUser = "Anonymous"
	// MaxUserLen caps the username length in runes.
	MaxUserLen = 64
)

// Coordinator accepts inbound chat events, persists them via the message
// store and fans them out to every registered session in acceptance order.
type Coordinator struct {
	store    store.MessageStore
	registry *Registry
	log      *zerolog.Logger
	now      func() time.Time

	// mu serializes persist+publish (accept) and snapshot+register
	// (OnConnect) so every session observes one global event order, and a
	// connecting session's snapshot is a prefix of the live stream that
	// follows it.
	mu sync.Mutex
}

// NewCoordinator constructs a coordinator over the given store and registry.
func NewCoordinator(st store.MessageStore, registry *Registry, logger *zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:    st,
		registry: registry,
		log:      logger,
		now:      time.Now,
	}
}

// SubmitText accepts a text message. Text that is empty after trimming is
// rejected with ErrEmptyMessage; nothing is persisted or broadcast.
func (c *Coordinator) SubmitText(ctx context.Context, user, rawText string) (*Message, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	return c.accept(ctx, Message{User: normalizeUser(user), Text: text})
}

// SubmitImage accepts an image announcement. The blob behind imageURL must
// already be durably stored; that ordering is the upload handler's job.
func (c *Coordinator) SubmitImage(ctx context.Context, user, imageURL, mimeType string) (*Message, error) {
	if imageURL == "" {
		return nil, ErrMissingImage
	}
	return c.accept(ctx, Message{User: normalizeUser(user), ImageURL: imageURL, MimeType: mimeType})
}

// accept runs the persist-then-publish sequence under the coordinator lock.
// A failed append means no broadcast: clients must never observe an event
// that would be lost on a crash.
func (c *Coordinator) accept(ctx context.Context, msg Message) (*Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg.CreatedAt = c.now().UTC()

	rec := recordFromMessage(msg)
	if err := c.store.Append(ctx, &rec); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	msg.ID = rec.ID

	for _, s := range c.registry.Broadcast(&Event{Kind: EventChatMessage, Message: &msg}) {
		c.log.Warn().Str("session_id", s.ID).Int64("message_id", msg.ID).
			Msg("session evicted: outbound buffer full")
	}
	return &msg, nil
}

// OnConnect delivers the full transcript to the session and registers it
// for live events. The history frame is queued on the session channel
// before registration, all under the coordinator lock, so no event accepted
// concurrently can be missed by or duplicated for this session.
func (c *Coordinator) OnConnect(ctx context.Context, s *Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	history := make([]Message, 0, len(records))
	for _, rec := range records {
		history = append(history, messageFromRecord(rec))
	}

	// The session is not yet registered, so its channel holds nothing and
	// the history frame cannot fail to queue.
	if !s.push(&Event{Kind: EventHistory, History: history}) {
		return errors.New("session outbound buffer full at connect")
	}
	c.registry.Add(s)
	return nil
}

// OnDisconnect removes the session from the registry. Idempotent.
func (c *Coordinator) OnDisconnect(s *Session) {
	c.registry.Remove(s)
}

// History returns the persisted transcript in order, for the read-only
// HTTP route.
func (c *Coordinator) History(ctx context.Context) ([]Message, error) {
	records, err := c.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	out := make([]Message, 0, len(records))
	for _, rec := range records {
		out = append(out, messageFromRecord(rec))
	}
	return out, nil
}

func normalizeUser(user string) string {
	user = strings.TrimSpace(user)
	if user == "" {
		return DefaultUser
	}
	if runes := []rune(user); len(runes) > MaxUserLen {
		return string(runes[:MaxUserLen])
	}
	return user
}

func recordFromMessage(m Message) store.Message {
	return store.Message{
		User:      m.User,
		Text:      m.Text,
		ImageURL:  m.ImageURL,
		MimeType:  m.MimeType,
		CreatedAt: m.CreatedAt,
	}
}

func messageFromRecord(rec *store.Message) Message {
	return Message{
		ID:        rec.ID,
		User:      rec.User,
		Text:      rec.Text,
		ImageURL:  rec.ImageURL,
		MimeType:  rec.MimeType,
		CreatedAt: rec.CreatedAt,
	}
}
