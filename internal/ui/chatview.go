package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/seranote/seranote/internal/chat"
	"github.com/seranote/seranote/internal/client"
	"github.com/seranote/seranote/internal/models"
	"github.com/seranote/seranote/internal/realtime"
	"github.com/seranote/seranote/internal/shared"
)

// ChatModel is the thread view for one note.
type ChatModel struct {
	ctx    context.Context
	cancel context.CancelFunc
	api    *client.Client
	noteID string
	viewer string
	thread *chat.Thread
	note   *models.Note
	events <-chan realtime.Event
	input  textinput.Model
	width  int
	height int
	loaded bool
	err    error
	help   help.Model
	keys   keyMap
}

// NewChatModel creates a new chat TUI model for the given note.
func NewChatModel(ctx context.Context, api *client.Client, noteID, viewer string) *ChatModel {
	ctx, cancel := context.WithCancel(ctx)
	input := textinput.New()
	input.Placeholder = "Say something..."
	input.CharLimit = 2000
	input.Focus()

	return &ChatModel{
		ctx:    ctx,
		cancel: cancel,
		api:    api,
		noteID: noteID,
		viewer: shared.NormalizeEmail(viewer),
		input:  input,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init loads the note, its thread and the event stream.
func (m *ChatModel) Init() tea.Cmd {
	return m.fetchThread()
}

// Update handles incoming messages and updates the model state.
func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		case "enter":
			return m, m.send()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case threadFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.note = msg.view.Note
		m.thread = chat.NewThread(m.noteID, m.viewer, msg.thread)
		m.thread.SetUnread(msg.view.UnreadCount)
		m.loaded = true
		return m, tea.Batch(m.subscribe(), m.markRead())

	case messageSentMsg:
		if msg.err != nil {
			m.thread.Rollback(msg.localID)
			m.err = msg.err
			return m, nil
		}
		if err := m.thread.Resolve(msg.localID, msg.confirmed); err == nil {
			m.err = nil
		}
		return m, nil

	case markedReadMsg:
		if msg.err == nil {
			m.thread.MarkAllRead()
		}
		return m, nil

	case noteEventMsg:
		if !msg.ok {
			// Stream ended; the store still has everything on next launch.
			return m, nil
		}
		m.thread.Apply(msg.event)
		cmds := []tea.Cmd{m.waitForEvent()}
		if msg.event.Type == realtime.EventNewMessage && m.thread.Unread() > 0 {
			cmds = append(cmds, m.markRead())
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the thread with the newest messages at the bottom.
func (m *ChatModel) View() string {
	if m.err != nil && !m.loaded {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if !m.loaded {
		return styles.help.Render("Loading thread...")
	}

	title := styles.title.Render(m.note.Title)

	var lines []string
	for _, message := range m.thread.Messages() {
		lines = append(lines, m.renderMessage(message))
	}

	// Keep the tail that fits above the input line.
	visible := m.height - 6
	if visible > 0 && len(lines) > visible {
		lines = lines[len(lines)-visible:]
	}

	var errLine string
	if m.err != nil {
		errLine = styles.err.Render(m.err.Error()) + "\n"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back})
	return fmt.Sprintf("%s\n%s\n\n%s\n%s%s",
		title, strings.Join(lines, "\n"), m.input.View(), errLine, helpView)
}

func (m *ChatModel) renderMessage(message *models.Message) string {
	who := message.SenderEmail
	if message.Sender != nil && message.Sender.Name != "" {
		who = message.Sender.Name
	}

	line := fmt.Sprintf("%s: %s", who, message.Content)
	switch {
	case shared.IsLocalID(message.ID):
		return styles.help.Render(line + " (sending...)")
	case message.SenderEmail == m.viewer && message.IsRead:
		return line + styles.help.Render(" ✓")
	case message.SenderEmail == m.viewer:
		return line
	default:
		return styles.ok.Render(who+":") + " " + message.Content
	}
}

func (m *ChatModel) fetchThread() tea.Cmd {
	return func() tea.Msg {
		view, err := m.api.GetNote(m.ctx, m.noteID)
		if err != nil {
			return threadFetchedMsg{err: err}
		}
		thread, err := m.api.Messages(m.ctx, m.noteID)
		return threadFetchedMsg{view: view, thread: thread, err: err}
	}
}

func (m *ChatModel) subscribe() tea.Cmd {
	return func() tea.Msg {
		events, err := m.api.SubscribeEvents(m.ctx, m.noteID)
		if err != nil {
			return noteEventMsg{ok: false}
		}
		m.events = events
		event, ok := <-events
		return noteEventMsg{event: event, ok: ok}
	}
}

func (m *ChatModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		if m.events == nil {
			return noteEventMsg{ok: false}
		}
		event, ok := <-m.events
		return noteEventMsg{event: event, ok: ok}
	}
}

func (m *ChatModel) send() tea.Cmd {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return nil
	}

	local, err := m.thread.Send(content)
	if err != nil {
		m.err = err
		return nil
	}
	m.input.SetValue("")

	return func() tea.Msg {
		confirmed, err := m.api.SendMessage(m.ctx, m.noteID, content)
		return messageSentMsg{localID: local.ID, confirmed: confirmed, err: err}
	}
}

func (m *ChatModel) markRead() tea.Cmd {
	return func() tea.Msg {
		return markedReadMsg{err: m.api.MarkRead(m.ctx, m.noteID)}
	}
}
