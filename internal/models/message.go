package models

import (
	"fmt"
	"strings"
	"time"
)

// Message is one entry in the chat thread attached to a note. Immutable once
// created; ordered by CreatedAt ascending for display.
type Message struct {
	ID          string       `json:"id"`
	Sequence    int          `json:"-"`
	NoteID      string       `json:"seranoteId"`
	SenderEmail string       `json:"senderEmail"`
	Content     string       `json:"content"`
	IsRead      bool         `json:"isRead"`
	ReadAt      *time.Time   `json:"readAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	Sender      *UserSummary `json:"sender,omitempty"`
}

func (m *Message) Key() string { return m.ID }

// Validate checks that the message belongs to a note, has a sender and
// non-blank trimmed content.
func (m *Message) Validate() error {
	if m.NoteID == "" {
		return fmt.Errorf("message note reference is required")
	}
	if m.SenderEmail == "" {
		return fmt.Errorf("message sender is required")
	}
	if strings.TrimSpace(m.Content) == "" {
		return fmt.Errorf("message content is required")
	}
	return nil
}
