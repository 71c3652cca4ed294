package models

import (
	"fmt"
	"strings"
	"time"
)

// Note is the shareable text+song artifact a user creates.
//
// ReceiverEmail may be empty at creation; the first non-sender viewer claims
// the slot exactly once (see the notes service). Title, message and the clip
// are immutable after creation.
type Note struct {
	ID            string    `json:"id"`
	Sequence      int       `json:"-"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	SongID        string    `json:"songId"`
	ClipStart     float64   `json:"clipStart"`
	ClipDuration  float64   `json:"clipDuration"`
	TrackDuration *float64  `json:"trackDuration,omitempty"`
	SenderEmail   string    `json:"senderEmail"`
	ReceiverEmail string    `json:"receiverEmail,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (n *Note) Key() string { return n.ID }

// Validate checks required fields and the clip invariants.
func (n *Note) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("note title is required")
	}
	if strings.TrimSpace(n.Message) == "" {
		return fmt.Errorf("note message is required")
	}
	if strings.TrimSpace(n.SongID) == "" {
		return fmt.Errorf("note song reference is required")
	}
	if n.SenderEmail == "" {
		return fmt.Errorf("note sender is required")
	}
	if n.ClipStart < 0 {
		return fmt.Errorf("clip start must be non-negative, got %v", n.ClipStart)
	}
	if n.ClipDuration < MinClipDuration || n.ClipDuration > MaxClipDuration {
		return fmt.Errorf("clip duration must be within [%v, %v], got %v", MinClipDuration, MaxClipDuration, n.ClipDuration)
	}
	return nil
}

// HasReceiver reports whether the receiver slot has been assigned.
func (n *Note) HasReceiver() bool { return n.ReceiverEmail != "" }

// IsParticipant reports whether email is the note's sender or receiver.
func (n *Note) IsParticipant(email string) bool {
	return email != "" && (email == n.SenderEmail || email == n.ReceiverEmail)
}

// Counterpart returns the other participant's email, or "" when the note has
// no receiver yet or email is not on the note.
func (n *Note) Counterpart(email string) string {
	switch email {
	case n.SenderEmail:
		return n.ReceiverEmail
	case n.ReceiverEmail:
		return n.SenderEmail
	default:
		return ""
	}
}
