// Package realtime pushes note events to connected viewers.
//
// Every note has one channel. Delivery is at-most-once: the store is the
// source of truth and clients reconcile by refetching, so a dropped event
// costs a refresh, never data.
package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/seranote/seranote/internal/models"
)

// Event types pushed on a note channel.
const (
	EventNewMessage   = "new-message"
	EventMessagesRead = "messages-read"
)

// Event is a single push on a note channel.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessagePayload accompanies [EventNewMessage]. UnreadCount is computed for
// the note's other participant at publish time.
type NewMessagePayload struct {
	Message     *models.Message `json:"message"`
	UnreadCount int             `json:"unreadCount"`
}

// MessagesReadPayload accompanies [EventMessagesRead]. UserEmail is the viewer
// whose watermark advanced; UnreadCount is that viewer's count after the
// advance, which is zero unless new messages raced in.
type MessagesReadPayload struct {
	UserEmail   string `json:"userEmail"`
	UnreadCount int    `json:"unreadCount"`
}

// NewMessageEvent builds the event published after a message is stored.
func NewMessageEvent(message *models.Message, unreadCount int) (Event, error) {
	return newEvent(EventNewMessage, NewMessagePayload{Message: message, UnreadCount: unreadCount})
}

// MessagesReadEvent builds the event published after a viewer marks a note read.
func MessagesReadEvent(userEmail string, unreadCount int) (Event, error) {
	return newEvent(EventMessagesRead, MessagesReadPayload{UserEmail: userEmail, UnreadCount: unreadCount})
}

func newEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: data}, nil
}

// NoteChannel returns the channel name for a note's events.
func NoteChannel(noteID string) string {
	return "note-" + noteID
}
