package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/colimarl/groupchat-server/internal/store"
)

// memStore is an in-memory MessageStore with failure injection.
type memStore struct {
	mu        sync.Mutex
	msgs      []store.Message
	nextID    int64
	appendErr error
	listErr   error
}

func (m *memStore) Append(_ context.Context, msg *store.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.nextID++
	msg.ID = m.nextID
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memStore) ListAll(_ context.Context) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*store.Message, 0, len(m.msgs))
	for i := range m.msgs {
		msg := m.msgs[i]
		out = append(out, &msg)
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

func newTestCoordinator(st store.MessageStore) (*Coordinator, *Registry) {
	logger := zerolog.Nop()
	registry := NewRegistry()
	return NewCoordinator(st, registry, &logger), registry
}

// connect registers a session and drains its initial history frame.
func connect(t *testing.T, c *Coordinator) (*Session, []Message) {
	t.Helper()

	s := NewSession("s-" + t.Name())
	if err := c.OnConnect(context.Background(), s); err != nil {
		t.Fatalf("OnConnect failed: %v", err)
	}
	ev := mustEvent(t, s.Events, EventHistory)
	return s, ev.History
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got kind %v", ev.Kind)
	default:
	}
}
