package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/seranote/seranote/internal/catalog"
	"github.com/seranote/seranote/internal/models"
)

var (
	_ list.Item = songItem{}
	_ list.Item = noteItem{}
)

// songItem wraps [catalog.Song] to implement [list.Item].
type songItem struct {
	song *catalog.Song
}

func (i songItem) FilterValue() string { return i.song.Title }
func (i songItem) Title() string       { return i.song.Title }
func (i songItem) Description() string {
	desc := i.song.Artist
	if i.song.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.Album)
	}
	return fmt.Sprintf("%s • %s", desc, formatDuration(i.song.AudioDuration))
}

// noteItem wraps [models.Note] to implement [list.Item].
type noteItem struct {
	note *models.Note
}

func (i noteItem) FilterValue() string { return i.note.Title }
func (i noteItem) Title() string       { return i.note.Title }
func (i noteItem) Description() string {
	to := i.note.ReceiverEmail
	if to == "" {
		to = "unclaimed"
	}
	return fmt.Sprintf("%s → %s • %s", i.note.SenderEmail, to, i.note.SongID)
}

func formatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
