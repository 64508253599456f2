package core

import "time"

// Message is the domain model for one chat event: either a text message or
// an announcement of an uploaded image. Exactly one of Text and ImageURL is
// set; the Coordinator enforces this on acceptance.
type Message struct {
	ID        int64
	User      string
	Text      string
	ImageURL  string
	MimeType  string
	CreatedAt time.Time
}

// IsImage reports whether the message announces an uploaded image.
func (m Message) IsImage() bool {
	return m.ImageURL != ""
}
