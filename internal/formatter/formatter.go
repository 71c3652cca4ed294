// package formatter renders notes and threads for CLI output (table, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/seranote/seranote/internal/catalog"
	"github.com/seranote/seranote/internal/models"
)

// SongsToTable renders catalog entries as an aligned table.
func SongsToTable(list []*catalog.Song) ([]byte, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "SLUG\tTITLE\tARTIST\tALBUM\tLENGTH")
	for _, song := range list {
		minutes := int(song.AudioDuration) / 60
		seconds := int(song.AudioDuration) % 60
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d:%02d\n",
			song.Slug, song.Title, song.Artist, song.Album, minutes, seconds)
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to render table: %w", err)
	}
	return buf.Bytes(), nil
}

// NotesToTable renders notes as an aligned table with columns: ID, Title, Song, From, To, Created.
func NotesToTable(list []*models.Note) ([]byte, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tTITLE\tSONG\tFROM\tTO\tCREATED")
	for _, note := range list {
		to := note.ReceiverEmail
		if to == "" {
			to = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			note.ID, note.Title, note.SongID, note.SenderEmail, to,
			note.CreatedAt.Format("2006-01-02 15:04"),
		)
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to render table: %w", err)
	}
	return buf.Bytes(), nil
}

// NoteToText renders one note as plain text with its clip window.
func NoteToText(note *models.Note) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Title:   %s\n", note.Title)
	fmt.Fprintf(&buf, "Song:    %s\n", note.SongID)
	fmt.Fprintf(&buf, "Clip:    %.1fs – %.1fs (%.0fs)\n",
		note.ClipStart, note.ClipStart+note.ClipDuration, note.ClipDuration)
	fmt.Fprintf(&buf, "From:    %s\n", note.SenderEmail)
	if note.ReceiverEmail != "" {
		fmt.Fprintf(&buf, "To:      %s\n", note.ReceiverEmail)
	}
	fmt.Fprintf(&buf, "Created: %s\n\n", note.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintln(&buf, note.Message)

	return buf.Bytes()
}

// ThreadToText renders a message thread oldest first, flagging unread lines.
func ThreadToText(thread []*models.Message, viewer string) []byte {
	var buf bytes.Buffer

	for _, message := range thread {
		who := message.SenderEmail
		if message.Sender != nil && message.Sender.Name != "" {
			who = message.Sender.Name
		}
		marker := " "
		if message.SenderEmail != viewer && !message.IsRead {
			marker = "*"
		}
		fmt.Fprintf(&buf, "%s [%s] %s: %s\n",
			marker, message.CreatedAt.Format("15:04"), who, message.Content)
	}

	return buf.Bytes()
}

// ToJSON renders any payload as indented JSON.
func ToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}
