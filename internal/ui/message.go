package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seranote/seranote/internal/catalog"
	"github.com/seranote/seranote/internal/models"
	"github.com/seranote/seranote/internal/notes"
	"github.com/seranote/seranote/internal/realtime"
)

type songsFetchedMsg struct {
	songs []*catalog.Song
	err   error
}

type noteCreatedMsg struct {
	view *notes.NoteView
	err  error
}

type threadFetchedMsg struct {
	view   *notes.NoteView
	thread []*models.Message
	err    error
}

type messageSentMsg struct {
	localID   string
	confirmed *models.Message
	err       error
}

type markedReadMsg struct {
	err error
}

type noteEventMsg struct {
	event realtime.Event
	ok    bool
}

// tickMsg drives the playhead while the clip trimmer is playing.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
