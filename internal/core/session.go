package core

// sessionBuffer is the outbound queue depth per session. A session that
// falls this far behind a broadcast is considered dead and removed.
const sessionBuffer = 32

// Session is one live client connection eligible for broadcast delivery.
// It carries no identity; usernames travel with each submitted message.
type Session struct {
	ID     string
	Events chan *Event
}

// NewSession constructs a session with an initialized outbound channel.
func NewSession(id string) *Session {
	return &Session{
		ID:     id,
		Events: make(chan *Event, sessionBuffer),
	}
}

// push attempts a non-blocking delivery. Returns false when the outbound
// buffer is full.
func (s *Session) push(ev *Event) bool {
	select {
	case s.Events <- ev:
		return true
	default:
		return false
	}
}
