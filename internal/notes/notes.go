// Package notes implements the note lifecycle: compose, share, claim, chat
// and read tracking.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/seranote/seranote/internal/catalog"
	"github.com/seranote/seranote/internal/models"
	"github.com/seranote/seranote/internal/realtime"
	"github.com/seranote/seranote/internal/repositories"
	"github.com/seranote/seranote/internal/shared"
)

// SongCatalog resolves songs referenced by notes.
type SongCatalog interface {
	GetSong(ctx context.Context, slug string) (*catalog.Song, error)
}

// ShareMailer delivers the share email for a freshly created note.
type ShareMailer interface {
	SendShareEmail(ctx context.Context, to, senderName, noteTitle, shareURL string) error
}

// Service coordinates repositories, the song catalog, the event broker and
// the share mailer.
type Service struct {
	notes      *repositories.NoteRepository
	messages   *repositories.MessageRepository
	watermarks *repositories.WatermarkRepository
	catalog    SongCatalog
	broker     realtime.Broker
	mailer     ShareMailer
	baseURL    string
	logger     *log.Logger
}

// NewService creates a new note Service
func NewService(
	notes *repositories.NoteRepository,
	messages *repositories.MessageRepository,
	watermarks *repositories.WatermarkRepository,
	songs SongCatalog,
	broker realtime.Broker,
	mailer ShareMailer,
	baseURL string,
	logger *log.Logger,
) *Service {
	return &Service{
		notes:      notes,
		messages:   messages,
		watermarks: watermarks,
		catalog:    songs,
		broker:     broker,
		mailer:     mailer,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// CreateNoteInput carries the compose form. ClipDuration zero means the whole
// default window. ReceiverEmail pre-assigns the receiver slot, so first-claim
// only applies when it is absent; ShareEmail only addresses the share email
// and leaves the slot open.
type CreateNoteInput struct {
	Title         string  `json:"title"`
	Message       string  `json:"message"`
	SongID        string  `json:"songId"`
	ClipStart     float64 `json:"clipStart"`
	ClipDuration  float64 `json:"clipDuration"`
	ReceiverEmail string  `json:"receiverEmail,omitempty"`
	ShareEmail    string  `json:"shareEmail,omitempty"`
}

// NoteView is a note joined with its song, its thread (oldest first, each
// message carrying a sender summary) and the viewer's unread count.
type NoteView struct {
	Note        *models.Note      `json:"note"`
	Song        *catalog.Song     `json:"song,omitempty"`
	Messages    []*models.Message `json:"messages"`
	UnreadCount int               `json:"unreadCount"`
}

// ShareURL returns the public link a note is shared under.
func (s *Service) ShareURL(noteID string) string {
	return fmt.Sprintf("%s/notes/%s", s.baseURL, noteID)
}

// CreateNote validates the clip against the catalog track and stores the
// note. An explicit ReceiverEmail fills the slot at creation; otherwise it
// stays unset until someone opens the link. The share email goes out
// best-effort to ShareEmail, or to the receiver when only that is set; a mail
// failure never fails the create.
func (s *Service) CreateNote(ctx context.Context, sender string, input CreateNoteInput) (*NoteView, error) {
	if strings.TrimSpace(input.Title) == "" ||
		strings.TrimSpace(input.Message) == "" ||
		strings.TrimSpace(input.SongID) == "" {
		return nil, fmt.Errorf("%w: title, message and songId are required", shared.ErrValidation)
	}

	song, err := s.catalog.GetSong(ctx, input.SongID)
	if err != nil {
		return nil, err
	}

	clipStart := input.ClipStart
	clipDuration := input.ClipDuration
	if clipDuration == 0 {
		clipDuration = models.MaxClipDuration
	}
	if clipDuration > song.AudioDuration {
		clipDuration = song.AudioDuration
	}
	if clipStart+clipDuration > song.AudioDuration {
		return nil, fmt.Errorf("%w: clip [%.2f, %.2f) exceeds track length %.2f",
			shared.ErrClipOutOfRange, clipStart, clipStart+clipDuration, song.AudioDuration)
	}

	trackDuration := song.AudioDuration
	note := &models.Note{
		Title:         input.Title,
		Message:       input.Message,
		SongID:        song.Slug,
		ClipStart:     clipStart,
		ClipDuration:  clipDuration,
		TrackDuration: &trackDuration,
		SenderEmail:   shared.NormalizeEmail(sender),
		ReceiverEmail: shared.NormalizeEmail(input.ReceiverEmail),
	}

	if err := s.notes.Create(note); err != nil {
		return nil, err
	}

	to := shared.NormalizeEmail(input.ShareEmail)
	if to == "" {
		to = note.ReceiverEmail
	}
	if to != "" && s.mailer != nil {
		if err := s.mailer.SendShareEmail(ctx, to, note.SenderEmail, note.Title, s.ShareURL(note.ID)); err != nil {
			s.logger.Warn("failed to send share email", "note", note.ID, "error", err)
		}
	}

	return &NoteView{Note: note, Messages: []*models.Message{}, Song: song}, nil
}

// GetNote loads a note with its thread for a viewer and settles receivership.
// The first non-sender to open an unclaimed note becomes its receiver; losers
// of that race and any later third party get [shared.ErrForbidden]. An
// unknown note is [shared.ErrNotFound] and never claims anything.
func (s *Service) GetNote(ctx context.Context, viewer, id string) (*NoteView, error) {
	viewer = shared.NormalizeEmail(viewer)

	note, err := s.notes.Get(id)
	if err != nil {
		return nil, err
	}

	if !note.IsParticipant(viewer) {
		if note.HasReceiver() {
			return nil, shared.ErrForbidden
		}

		won, err := s.notes.ClaimReceiver(id, viewer)
		if err != nil {
			return nil, err
		}
		if won {
			note.ReceiverEmail = viewer
		} else {
			// Lost the race. Re-read to see who won; the viewer may still be
			// the receiver if a duplicate request from them landed first.
			note, err = s.notes.Get(id)
			if err != nil {
				return nil, err
			}
			if !note.IsParticipant(viewer) {
				return nil, shared.ErrForbidden
			}
		}
	}

	view := &NoteView{Note: note}

	if song, err := s.catalog.GetSong(ctx, note.SongID); err != nil {
		s.logger.Warn("failed to load song for note", "note", id, "song", note.SongID, "error", err)
	} else {
		view.Song = song
	}

	thread, err := s.messages.ListByNote(id)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		thread = []*models.Message{}
	}
	view.Messages = thread

	unread, err := s.UnreadCount(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	view.UnreadCount = unread

	return view, nil
}

// ListNotes returns the viewer's sent or received notes, newest first.
func (s *Service) ListNotes(_ context.Context, viewer, kind string) ([]*models.Note, error) {
	viewer = shared.NormalizeEmail(viewer)

	switch kind {
	case "", "sent":
		return s.notes.ListBySender(viewer)
	case "received":
		return s.notes.ListByReceiver(viewer)
	default:
		return nil, fmt.Errorf("%w: unknown list type %q", shared.ErrValidation, kind)
	}
}

// DeleteNote removes a note and, through the schema, its thread and
// watermarks. Only participants may delete.
func (s *Service) DeleteNote(_ context.Context, viewer, id string) error {
	note, err := s.notes.Get(id)
	if err != nil {
		return err
	}
	if !note.IsParticipant(shared.NormalizeEmail(viewer)) {
		return shared.ErrForbidden
	}
	return s.notes.Delete(id)
}

// Messages returns the note's thread for a participant, oldest first.
func (s *Service) Messages(_ context.Context, viewer, noteID string) ([]*models.Message, error) {
	if _, err := s.participant(viewer, noteID); err != nil {
		return nil, err
	}
	return s.messages.ListByNote(noteID)
}

// SendMessage appends to the note's thread and pushes the event to the note
// channel with the counterpart's new unread count. Publish failures are
// logged, never surfaced: the message is already durable.
func (s *Service) SendMessage(ctx context.Context, viewer, noteID, content string) (*models.Message, error) {
	note, err := s.participant(viewer, noteID)
	if err != nil {
		return nil, err
	}
	viewer = shared.NormalizeEmail(viewer)

	message := &models.Message{
		NoteID:      noteID,
		SenderEmail: viewer,
		Content:     content,
	}
	if err := s.messages.Create(message); err != nil {
		return nil, err
	}

	unread := 0
	if other := note.Counterpart(viewer); other != "" {
		if unread, err = s.UnreadCount(ctx, other, noteID); err != nil {
			s.logger.Warn("failed to count unread for event", "note", noteID, "error", err)
			unread = 0
		}
	}

	event, err := realtime.NewMessageEvent(message, unread)
	if err != nil {
		s.logger.Error("failed to build message event", "note", noteID, "error", err)
		return message, nil
	}
	if err := s.broker.Publish(ctx, realtime.NoteChannel(noteID), event); err != nil {
		s.logger.Warn("failed to publish message event", "note", noteID, "error", err)
	}

	return message, nil
}

// MarkRead advances the viewer's watermark to now, derives the display flags
// and announces the new count on the note channel. Returns the viewer's
// unread count after the advance, which is zero unless messages raced in.
func (s *Service) MarkRead(ctx context.Context, viewer, noteID string) (int, error) {
	if _, err := s.participant(viewer, noteID); err != nil {
		return 0, err
	}
	viewer = shared.NormalizeEmail(viewer)

	now := time.Now().UTC()
	if err := s.watermarks.Advance(noteID, viewer, now); err != nil {
		return 0, err
	}
	if err := s.messages.MarkReadBefore(noteID, viewer, now); err != nil {
		return 0, err
	}

	unread, err := s.messages.CountUnread(noteID, viewer, now)
	if err != nil {
		return 0, err
	}

	event, err := realtime.MessagesReadEvent(viewer, unread)
	if err != nil {
		s.logger.Error("failed to build read event", "note", noteID, "error", err)
		return unread, nil
	}
	if err := s.broker.Publish(ctx, realtime.NoteChannel(noteID), event); err != nil {
		s.logger.Warn("failed to publish read event", "note", noteID, "error", err)
	}

	return unread, nil
}

// UnreadCount counts the viewer's unread messages on a note from their
// watermark. Viewers who never marked the note read count from the epoch.
func (s *Service) UnreadCount(_ context.Context, viewer, noteID string) (int, error) {
	viewer = shared.NormalizeEmail(viewer)

	lastReadAt, err := s.watermarks.Get(noteID, viewer)
	if err != nil {
		return 0, err
	}
	return s.messages.CountUnread(noteID, viewer, lastReadAt)
}

// Authorize checks the viewer may follow the note's event stream. Unlike
// GetNote it never claims the receiver slot.
func (s *Service) Authorize(_ context.Context, viewer, noteID string) error {
	_, err := s.participant(viewer, noteID)
	return err
}

// participant loads the note and checks the viewer is on it.
func (s *Service) participant(viewer, noteID string) (*models.Note, error) {
	note, err := s.notes.Get(noteID)
	if err != nil {
		return nil, err
	}
	if !note.IsParticipant(shared.NormalizeEmail(viewer)) {
		return nil, shared.ErrForbidden
	}
	return note, nil
}

// IsAuthzError reports whether err should surface as an access problem rather
// than a server fault.
func IsAuthzError(err error) bool {
	return errors.Is(err, shared.ErrForbidden) || errors.Is(err, shared.ErrUnauthenticated)
}
