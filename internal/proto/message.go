package proto

import "encoding/json"

// TimestampLayout is the wire format for event timestamps, always UTC.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	// InboundTypeChatMessage carries a text submission from the client.
	InboundTypeChatMessage = "chat_message"

	// OutboundTypeChatMessage delivers one live event.
	OutboundTypeChatMessage = "chat_message"
	// OutboundTypeChatHistory delivers the transcript on connect.
	OutboundTypeChatHistory = "chat_history"
	// OutboundTypeError reports a failure to this client only.
	OutboundTypeError = "error"
)

// Inbound is the envelope for frames coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ChatMessageData is an inbound text submission.
type ChatMessageData struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// ChatMessage is one event record as clients see it. Exactly one of Text
// and ImageURL is non-null.
type ChatMessage struct {
	User      string  `json:"user"`
	Text      *string `json:"text"`
	ImageURL  *string `json:"image_url"`
	Timestamp string  `json:"timestamp"`
}

// Outbound is the envelope for frames sent to the client. Data holds a
// ChatMessage for chat_message frames and a []ChatMessage for chat_history.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a failure reported to a single client.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
