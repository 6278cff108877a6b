package interview

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Message is one chat line. It is never modified after being appended.
type Message struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	SenderName string    `json:"senderName"`
	SenderRole Role      `json:"senderRole"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewMessage stamps content with a fresh ULID and the sender's identity.
func NewMessage(content string, sender Participant) Message {
	return Message{
		ID:         ulid.Make().String(),
		Content:    content,
		SenderName: sender.Name,
		SenderRole: sender.Role,
		Timestamp:  time.Now(),
	}
}
