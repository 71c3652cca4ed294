package models

import (
	"fmt"
	"time"
)

// ReadWatermark records, per (viewer, note), the boundary before which
// messages count as read. LastReadAt is monotonically non-decreasing per
// pair; it is only ever advanced by an explicit mark-as-read, never by
// fetching messages.
type ReadWatermark struct {
	NoteID     string    `json:"seranoteId"`
	UserEmail  string    `json:"userEmail"`
	LastReadAt time.Time `json:"lastReadAt"`
}

func (w *ReadWatermark) Key() string { return w.NoteID + "/" + w.UserEmail }

func (w *ReadWatermark) Validate() error {
	if w.NoteID == "" || w.UserEmail == "" {
		return fmt.Errorf("watermark requires a note and a viewer")
	}
	return nil
}

// CountUnread applies the unread formula to a message list: messages strictly
// after the watermark, not authored by the viewer. Robust to a watermark
// ahead of the newest message (yields zero).
func CountUnread(messages []*Message, lastReadAt time.Time, viewer string) int {
	n := 0
	for _, m := range messages {
		if m.SenderEmail != viewer && m.CreatedAt.After(lastReadAt) {
			n++
		}
	}
	return n
}
