package core

// EventKind is a notification the core pushes to sessions.
type EventKind int

const (
	// EventChatMessage delivers one live chat message.
	EventChatMessage EventKind = iota
	// EventHistory delivers the full transcript to a session at connect time.
	EventHistory
	// EventError reports a failure to a single session.
	EventError
)

// Event is what a session receives on its outbound channel.
type Event struct {
	Kind    EventKind
	Message *Message
	History []Message // EventHistory only
	Error   *CoreError
}
