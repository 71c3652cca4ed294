// Package chat maintains a client-side view of a note's message thread:
// optimistic sends, reconciliation against server responses and de-duplicated
// event application.
package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/seranote/seranote/internal/models"
	"github.com/seranote/seranote/internal/realtime"
	"github.com/seranote/seranote/internal/shared"
)

// Thread is the viewer's local copy of a note's conversation. It is not safe
// for concurrent use; a single UI loop owns it.
type Thread struct {
	noteID   string
	viewer   string
	messages []*models.Message
	index    map[string]int
	unread   int
}

// NewThread creates a thread for the viewer seeded with the fetched history.
func NewThread(noteID, viewer string, history []*models.Message) *Thread {
	t := &Thread{
		noteID: noteID,
		viewer: shared.NormalizeEmail(viewer),
		index:  make(map[string]int, len(history)),
	}
	for _, m := range history {
		t.append(m)
	}
	return t
}

// Messages returns the thread oldest first. The slice is shared; callers must
// not mutate it.
func (t *Thread) Messages() []*models.Message { return t.messages }

// Unread returns the viewer's last known unread count.
func (t *Thread) Unread() int { return t.unread }

// SetUnread replaces the unread count, from a fetched note view.
func (t *Thread) SetUnread(n int) { t.unread = n }

// Send inserts an optimistic message with a provisional local ID. The caller
// shows it immediately, posts the content, then settles it with Resolve or
// Rollback.
func (t *Thread) Send(content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, shared.ErrBlankContent
	}

	message := &models.Message{
		ID:          shared.GenerateLocalID(),
		NoteID:      t.noteID,
		SenderEmail: t.viewer,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}
	t.append(message)
	return message, nil
}

// Resolve replaces a provisional message with the server's copy. When the
// server copy already arrived through an event the provisional one is simply
// dropped.
func (t *Thread) Resolve(localID string, confirmed *models.Message) error {
	if !shared.IsLocalID(localID) {
		return fmt.Errorf("message %s is not provisional", localID)
	}

	pos, ok := t.index[localID]
	if !ok {
		return fmt.Errorf("no provisional message %s", localID)
	}

	if _, dup := t.index[confirmed.ID]; dup {
		t.remove(pos)
		return nil
	}

	delete(t.index, localID)
	t.messages[pos] = confirmed
	t.index[confirmed.ID] = pos
	return nil
}

// Rollback drops a provisional message after a failed send.
func (t *Thread) Rollback(localID string) {
	if pos, ok := t.index[localID]; ok && shared.IsLocalID(localID) {
		t.remove(pos)
	}
}

// Apply folds a note channel event into the thread. Duplicate message IDs are
// ignored, so replays and the echo of the viewer's own resolved sends are
// harmless.
func (t *Thread) Apply(event realtime.Event) error {
	switch event.Type {
	case realtime.EventNewMessage:
		var payload realtime.NewMessagePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode new-message payload: %w", err)
		}
		if payload.Message == nil {
			return fmt.Errorf("new-message event without a message")
		}
		if _, dup := t.index[payload.Message.ID]; dup {
			return nil
		}
		t.append(payload.Message)
		if payload.Message.SenderEmail != t.viewer {
			t.unread = payload.UnreadCount
		}
	case realtime.EventMessagesRead:
		var payload realtime.MessagesReadPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode messages-read payload: %w", err)
		}
		if payload.UserEmail == t.viewer {
			t.unread = payload.UnreadCount
		} else {
			t.markPeerRead()
		}
	}
	return nil
}

// MarkAllRead zeroes the local unread count, after a successful mark-read call.
func (t *Thread) MarkAllRead() { t.unread = 0 }

func (t *Thread) append(m *models.Message) {
	t.index[m.ID] = len(t.messages)
	t.messages = append(t.messages, m)
}

func (t *Thread) remove(pos int) {
	delete(t.index, t.messages[pos].ID)
	t.messages = append(t.messages[:pos], t.messages[pos+1:]...)
	for i := pos; i < len(t.messages); i++ {
		t.index[t.messages[i].ID] = i
	}
}

// markPeerRead flips the display flag on the viewer's own messages once the
// other participant has seen them.
func (t *Thread) markPeerRead() {
	now := time.Now().UTC()
	for _, m := range t.messages {
		if m.SenderEmail == t.viewer && !m.IsRead {
			m.IsRead = true
			m.ReadAt = &now
		}
	}
}
