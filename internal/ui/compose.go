package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/seranote/seranote/internal/catalog"
	"github.com/seranote/seranote/internal/client"
	"github.com/seranote/seranote/internal/clip"
	"github.com/seranote/seranote/internal/notes"
)

// ViewState represents the current view in the compose TUI.
type ViewState int

const (
	SongListView ViewState = iota
	ClipView
	ComposeFormView
	SentView
)

// nudge is how far one keypress moves a clip handle, in seconds.
const nudge = 1.0

// ComposeModel walks the user from song choice to a sent note.
type ComposeModel struct {
	ctx      context.Context
	api      *client.Client
	view     ViewState
	width    int
	height   int
	songList list.Model
	songs    []*catalog.Song
	selected *catalog.Song
	sel      *clip.Selector
	playback *clip.Playback
	handle   clip.Handle
	inputs   []textinput.Model
	focus    int
	created  *notes.NoteView
	err      error
	help     help.Model
	keys     keyMap
}

// NewComposeModel creates a new compose TUI model over the API client.
func NewComposeModel(ctx context.Context, api *client.Client) *ComposeModel {
	inputs := make([]textinput.Model, 3)
	for i := range inputs {
		inputs[i] = textinput.New()
	}
	inputs[0].Placeholder = "Title"
	inputs[0].CharLimit = 120
	inputs[1].Placeholder = "Write your note..."
	inputs[1].CharLimit = 2000
	inputs[2].Placeholder = "Share with (email, optional)"
	inputs[0].Focus()

	return &ComposeModel{
		ctx:    ctx,
		api:    api,
		view:   SongListView,
		inputs: inputs,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init fetches the song catalog.
func (m *ComposeModel) Init() tea.Cmd {
	return m.fetchSongs()
}

// Update handles incoming messages and updates the model state.
func (m *ComposeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.songList.Width() == 0 {
			m.songList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SongListView:
			return m.handleSongListKeys(msg)
		case ClipView:
			return m.handleClipKeys(msg)
		case ComposeFormView:
			return m.handleFormKeys(msg)
		case SentView:
			return m.handleSentKeys(msg)
		}

	case songsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.songs = msg.songs
		items := make([]list.Item, len(msg.songs))
		for i, song := range msg.songs {
			items[i] = songItem{song: song}
		}
		m.songList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.songList.Title = "Pick a song"
		m.songList.SetSize(m.width-4, m.height-8)
		return m, nil

	case noteCreatedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ComposeFormView
			return m, nil
		}
		m.created = msg.view
		m.view = SentView
		return m, nil

	case tickMsg:
		if m.view == ClipView && m.playback.Playing() {
			m.playback.Advance(0.05)
			return m, tickCmd()
		}
		return m, nil
	}

	if m.view == SongListView {
		var cmd tea.Cmd
		m.songList, cmd = m.songList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *ComposeModel) View() string {
	if m.err != nil && m.view != ComposeFormView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case SongListView:
		return m.renderSongList()
	case ClipView:
		return m.renderClip()
	case ComposeFormView:
		return m.renderForm()
	case SentView:
		return m.renderSent()
	default:
		return ""
	}
}

func (m *ComposeModel) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if selected := m.songList.SelectedItem(); selected != nil {
			if item, ok := selected.(songItem); ok {
				m.selected = item.song
				m.sel = clip.NewSelector(item.song.AudioDuration)
				m.playback = clip.NewPlayback(m.sel)
				m.handle = clip.HandleStart
				m.view = ClipView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *ComposeModel) handleClipKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.playback.Pause()
		m.view = SongListView
		return m, nil
	case "tab":
		if m.handle == clip.HandleStart {
			m.handle = clip.HandleEnd
		} else {
			m.handle = clip.HandleStart
		}
		return m, nil
	case "left", "h":
		m.dragBy(-nudge)
		return m, nil
	case "right", "l":
		m.dragBy(nudge)
		return m, nil
	case " ":
		m.playback.Toggle()
		if m.playback.Playing() {
			return m, tickCmd()
		}
		return m, nil
	case "enter":
		if _, _, err := m.sel.Confirm(); err != nil {
			m.err = err
			return m, nil
		}
		m.playback.Pause()
		m.err = nil
		m.view = ComposeFormView
		return m, nil
	}
	return m, nil
}

func (m *ComposeModel) dragBy(delta float64) {
	if m.handle == clip.HandleStart {
		m.sel.DragStart(m.sel.Start() + delta)
	} else {
		m.sel.DragEnd(m.sel.End() + delta)
	}
}

func (m *ComposeModel) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ClipView
		return m, nil
	case "tab", "shift+tab", "down", "up":
		if msg.String() == "tab" || msg.String() == "down" {
			m.focus = (m.focus + 1) % len(m.inputs)
		} else {
			m.focus = (m.focus + len(m.inputs) - 1) % len(m.inputs)
		}
		for i := range m.inputs {
			if i == m.focus {
				m.inputs[i].Focus()
			} else {
				m.inputs[i].Blur()
			}
		}
		return m, nil
	case "enter":
		return m, m.createNote()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *ComposeModel) handleSentKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m *ComposeModel) fetchSongs() tea.Cmd {
	return func() tea.Msg {
		songs, err := m.api.ListSongs(m.ctx)
		return songsFetchedMsg{songs: songs, err: err}
	}
}

func (m *ComposeModel) createNote() tea.Cmd {
	start, duration, err := m.sel.Confirm()
	if err != nil {
		m.err = err
		return nil
	}

	input := notes.CreateNoteInput{
		Title:        strings.TrimSpace(m.inputs[0].Value()),
		Message:      strings.TrimSpace(m.inputs[1].Value()),
		SongID:       m.selected.Slug,
		ClipStart:    start,
		ClipDuration: duration,
		ShareEmail:   strings.TrimSpace(m.inputs[2].Value()),
	}

	return func() tea.Msg {
		view, err := m.api.CreateNote(m.ctx, input)
		return noteCreatedMsg{view: view, err: err}
	}
}

func (m *ComposeModel) renderSongList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.songList.View(), helpView)
}

// renderClip draws the track as a bar with the selection window and playhead.
func (m *ComposeModel) renderClip() string {
	title := styles.title.Render(fmt.Sprintf("Trim '%s'", m.selected.Title))

	const barWidth = 60
	track := m.sel.TrackDuration()
	startCol := int(m.sel.Start() / track * barWidth)
	endCol := int(m.sel.End() / track * barWidth)
	headCol := int(m.playback.Position() / track * barWidth)

	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		switch {
		case i == headCol && m.playback.Playing():
			bar.WriteString("┃")
		case i == startCol || i == endCol-1:
			bar.WriteString("█")
		case i > startCol && i < endCol:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}

	active := "start"
	if m.handle == clip.HandleEnd {
		active = "end"
	}
	info := fmt.Sprintf("%s – %s  (%.0fs)  handle: %s",
		formatDuration(m.sel.Start()), formatDuration(m.sel.End()), m.sel.Duration(), active)

	var errLine string
	if m.err != nil {
		errLine = "\n" + styles.err.Render(m.err.Error())
	}

	helpView := m.help.ShortHelpView([]key.Binding{
		m.keys.left, m.keys.right, m.keys.swap, m.keys.play, m.keys.enter, m.keys.back,
	})
	return fmt.Sprintf("%s\n%s\n%s%s\n\n%s", title, bar.String(), info, errLine, helpView)
}

func (m *ComposeModel) renderForm() string {
	title := styles.title.Render("Your note")

	var fields strings.Builder
	for i := range m.inputs {
		fields.WriteString(m.inputs[i].View())
		fields.WriteString("\n")
	}

	var errLine string
	if m.err != nil {
		errLine = styles.err.Render(m.err.Error()) + "\n"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.enter, m.keys.back})
	return fmt.Sprintf("%s\n%s%s\n%s", title, fields.String(), errLine, helpView)
}

func (m *ComposeModel) renderSent() string {
	title := styles.ok.Render("Note sent")
	link := m.api.ShareURL(m.created.Note.ID)
	return fmt.Sprintf("%s\n\nShare this link:\n%s\n\n%s", title, link,
		styles.help.Render("press q to quit"))
}
