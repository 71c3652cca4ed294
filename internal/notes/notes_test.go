package notes

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/seranote/seranote/internal/catalog"
	"github.com/seranote/seranote/internal/realtime"
	"github.com/seranote/seranote/internal/repositories"
	"github.com/seranote/seranote/internal/shared"
)

type fakeCatalog struct {
	songs map[string]*catalog.Song
}

func (f *fakeCatalog) GetSong(_ context.Context, slug string) (*catalog.Song, error) {
	song, ok := f.songs[slug]
	if !ok {
		return nil, shared.ErrSongNotFound
	}
	return song, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeMailer) SendShareEmail(_ context.Context, to, _, _, shareURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to+" "+shareURL)
	return f.err
}

func newTestService(t *testing.T) (*Service, *fakeMailer, *realtime.MemoryBroker) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	songs := &fakeCatalog{songs: map[string]*catalog.Song{
		"midnight-drive": {ID: "s1", Title: "Midnight Drive", Artist: "The Lanes", Slug: "midnight-drive",
			AudioURL: "https://cdn.example.com/a.mp3", AudioDuration: 200},
		"short-one": {ID: "s2", Title: "Short One", Slug: "short-one",
			AudioURL: "https://cdn.example.com/b.mp3", AudioDuration: 20},
	}}
	mailer := &fakeMailer{}
	broker := realtime.NewMemoryBroker(shared.NewLogger(nil))
	t.Cleanup(func() { broker.Close() })

	service := NewService(
		repositories.NewNoteRepository(db),
		repositories.NewMessageRepository(db),
		repositories.NewWatermarkRepository(db),
		songs,
		broker,
		mailer,
		"https://seranote.app",
		shared.NewLogger(nil),
	)
	return service, mailer, broker
}

func createNote(t *testing.T, s *Service, sender string) *NoteView {
	t.Helper()
	view, err := s.CreateNote(context.Background(), sender, CreateNoteInput{
		Title:        "for you",
		Message:      "this part always gets me",
		SongID:       "midnight-drive",
		ClipStart:    30,
		ClipDuration: 40,
	})
	if err != nil {
		t.Fatalf("failed to create note: %v", err)
	}
	return view
}

func TestCreateNote(t *testing.T) {
	ctx := context.Background()

	t.Run("persists clip and track duration", func(t *testing.T) {
		service, _, _ := newTestService(t)
		view := createNote(t, service, "a@example.com")

		if view.Note.ID == "" {
			t.Error("expected generated note ID")
		}
		if view.Note.TrackDuration == nil || *view.Note.TrackDuration != 200 {
			t.Errorf("expected track duration 200, got %v", view.Note.TrackDuration)
		}
		if view.Song == nil || view.Song.Slug != "midnight-drive" {
			t.Errorf("expected song on view, got %+v", view.Song)
		}
	})

	t.Run("defaults clip duration to the maximum", func(t *testing.T) {
		service, _, _ := newTestService(t)
		view, err := service.CreateNote(ctx, "a@example.com", CreateNoteInput{
			Title: "t", Message: "m", SongID: "midnight-drive",
		})
		if err != nil {
			t.Fatalf("failed to create note: %v", err)
		}
		if view.Note.ClipDuration != 114 {
			t.Errorf("expected default duration 114, got %v", view.Note.ClipDuration)
		}
	})

	t.Run("caps default duration at the track length", func(t *testing.T) {
		service, _, _ := newTestService(t)
		_, err := service.CreateNote(ctx, "a@example.com", CreateNoteInput{
			Title: "t", Message: "m", SongID: "short-one",
		})
		// Capping on a 20s track yields a 20s clip, within [14, 114].
		if err != nil {
			t.Fatalf("expected capped clip to validate, got %v", err)
		}
	})

	t.Run("rejects clip past the end of the track", func(t *testing.T) {
		service, _, _ := newTestService(t)
		_, err := service.CreateNote(ctx, "a@example.com", CreateNoteInput{
			Title: "t", Message: "m", SongID: "midnight-drive", ClipStart: 190, ClipDuration: 20,
		})
		if !errors.Is(err, shared.ErrClipOutOfRange) {
			t.Errorf("expected ErrClipOutOfRange, got %v", err)
		}
	})

	t.Run("requires title, message and song before the catalog lookup", func(t *testing.T) {
		service, _, _ := newTestService(t)
		inputs := []CreateNoteInput{
			{Message: "m", SongID: "midnight-drive"},
			{Title: "t", SongID: "midnight-drive"},
			{Title: "t", Message: "m"},
		}
		for _, input := range inputs {
			if _, err := service.CreateNote(ctx, "a@example.com", input); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation for %+v, got %v", input, err)
			}
		}
	})

	t.Run("addressed note stores the receiver", func(t *testing.T) {
		service, mailer, _ := newTestService(t)
		view, err := service.CreateNote(ctx, "a@example.com", CreateNoteInput{
			Title: "t", Message: "m", SongID: "midnight-drive", ReceiverEmail: "B@Example.com",
		})
		if err != nil {
			t.Fatalf("failed to create note: %v", err)
		}
		if view.Note.ReceiverEmail != "b@example.com" {
			t.Errorf("expected normalized receiver, got %q", view.Note.ReceiverEmail)
		}
		want := "b@example.com https://seranote.app/notes/" + view.Note.ID
		if len(mailer.sent) != 1 || mailer.sent[0] != want {
			t.Errorf("expected share email to the receiver, got %v", mailer.sent)
		}
	})

	t.Run("unknown song", func(t *testing.T) {
		service, _, _ := newTestService(t)
		_, err := service.CreateNote(ctx, "a@example.com", CreateNoteInput{
			Title: "t", Message: "m", SongID: "nope",
		})
		if !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("share email is sent with the link", func(t *testing.T) {
		service, mailer, _ := newTestService(t)
		view, err := service.CreateNote(ctx, "a@example.com", CreateNoteInput{
			Title: "t", Message: "m", SongID: "midnight-drive", ShareEmail: "B@Example.com",
		})
		if err != nil {
			t.Fatalf("failed to create note: %v", err)
		}
		if len(mailer.sent) != 1 {
			t.Fatalf("expected 1 share email, got %d", len(mailer.sent))
		}
		want := "b@example.com https://seranote.app/notes/" + view.Note.ID
		if mailer.sent[0] != want {
			t.Errorf("expected %q, got %q", want, mailer.sent[0])
		}
	})

	t.Run("mail failure does not fail the create", func(t *testing.T) {
		service, mailer, _ := newTestService(t)
		mailer.err = errors.New("smtp down")
		_, err := service.CreateNote(ctx, "a@example.com", CreateNoteInput{
			Title: "t", Message: "m", SongID: "midnight-drive", ShareEmail: "b@example.com",
		})
		if err != nil {
			t.Errorf("expected create to succeed despite mail failure, got %v", err)
		}
	})
}

func TestGetNote(t *testing.T) {
	ctx := context.Background()

	t.Run("sender never claims", func(t *testing.T) {
		service, _, _ := newTestService(t)
		created := createNote(t, service, "a@example.com")

		view, err := service.GetNote(ctx, "a@example.com", created.Note.ID)
		if err != nil {
			t.Fatalf("failed to get note: %v", err)
		}
		if view.Note.HasReceiver() {
			t.Error("sender's own view must not claim the receiver slot")
		}
	})

	t.Run("first stranger becomes the receiver", func(t *testing.T) {
		service, _, _ := newTestService(t)
		created := createNote(t, service, "a@example.com")

		view, err := service.GetNote(ctx, "b@example.com", created.Note.ID)
		if err != nil {
			t.Fatalf("failed to get note: %v", err)
		}
		if view.Note.ReceiverEmail != "b@example.com" {
			t.Errorf("expected b@example.com as receiver, got %s", view.Note.ReceiverEmail)
		}
	})

	t.Run("second stranger is rejected", func(t *testing.T) {
		service, _, _ := newTestService(t)
		created := createNote(t, service, "a@example.com")

		if _, err := service.GetNote(ctx, "b@example.com", created.Note.ID); err != nil {
			t.Fatalf("first viewer failed: %v", err)
		}
		if _, err := service.GetNote(ctx, "c@example.com", created.Note.ID); !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden for second stranger, got %v", err)
		}
	})

	t.Run("receiver can return", func(t *testing.T) {
		service, _, _ := newTestService(t)
		created := createNote(t, service, "a@example.com")

		if _, err := service.GetNote(ctx, "b@example.com", created.Note.ID); err != nil {
			t.Fatalf("first open failed: %v", err)
		}
		if _, err := service.GetNote(ctx, "b@example.com", created.Note.ID); err != nil {
			t.Errorf("receiver's second open failed: %v", err)
		}
	})

	t.Run("concurrent first opens settle on one receiver", func(t *testing.T) {
		service, _, _ := newTestService(t)
		created := createNote(t, service, "a@example.com")

		viewers := []string{"b@example.com", "c@example.com"}
		errs := make([]error, len(viewers))
		var wg sync.WaitGroup
		for i := range viewers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = service.GetNote(ctx, viewers[i], created.Note.ID)
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
			} else if !errors.Is(err, shared.ErrForbidden) {
				t.Errorf("unexpected error: %v", err)
			}
		}
		if winners != 1 {
			t.Errorf("expected exactly one winner, got %d", winners)
		}
	})

	t.Run("addressed note admits only its receiver", func(t *testing.T) {
		service, _, _ := newTestService(t)
		created, err := service.CreateNote(ctx, "a@example.com", CreateNoteInput{
			Title: "t", Message: "m", SongID: "midnight-drive", ReceiverEmail: "b@example.com",
		})
		if err != nil {
			t.Fatalf("failed to create note: %v", err)
		}

		if _, err := service.GetNote(ctx, "evil@example.com", created.Note.ID); !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden for a third party, got %v", err)
		}

		view, err := service.GetNote(ctx, "b@example.com", created.Note.ID)
		if err != nil {
			t.Fatalf("receiver's open failed: %v", err)
		}
		if view.Note.ReceiverEmail != "b@example.com" {
			t.Errorf("expected receiver unchanged, got %q", view.Note.ReceiverEmail)
		}
	})

	t.Run("view nests the thread oldest first", func(t *testing.T) {
		service, _, _ := newTestService(t)
		created := createNote(t, service, "a@example.com")

		if view, err := service.GetNote(ctx, "a@example.com", created.Note.ID); err != nil {
			t.Fatalf("failed to get note: %v", err)
		} else if view.Messages == nil || len(view.Messages) != 0 {
			t.Errorf("expected an empty thread on a fresh note, got %+v", view.Messages)
		}

		if _, err := service.GetNote(ctx, "b@example.com", created.Note.ID); err != nil {
			t.Fatalf("failed to claim: %v", err)
		}
		if _, err := service.SendMessage(ctx, "a@example.com", created.Note.ID, "first"); err != nil {
			t.Fatalf("failed to send: %v", err)
		}
		if _, err := service.SendMessage(ctx, "b@example.com", created.Note.ID, "second"); err != nil {
			t.Fatalf("failed to send: %v", err)
		}

		view, err := service.GetNote(ctx, "b@example.com", created.Note.ID)
		if err != nil {
			t.Fatalf("failed to get note: %v", err)
		}
		if len(view.Messages) != 2 || view.Messages[0].Content != "first" || view.Messages[1].Content != "second" {
			t.Errorf("expected nested thread oldest first, got %+v", view.Messages)
		}
	})

	t.Run("unknown note never claims", func(t *testing.T) {
		service, _, _ := newTestService(t)
		if _, err := service.GetNote(ctx, "b@example.com", "missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestChat(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, string) {
		service, _, _ := newTestService(t)
		created := createNote(t, service, "a@example.com")
		if _, err := service.GetNote(ctx, "b@example.com", created.Note.ID); err != nil {
			t.Fatalf("failed to claim note: %v", err)
		}
		return service, created.Note.ID
	}

	t.Run("send and list", func(t *testing.T) {
		service, noteID := setup(t)

		if _, err := service.SendMessage(ctx, "a@example.com", noteID, "hello"); err != nil {
			t.Fatalf("failed to send: %v", err)
		}
		if _, err := service.SendMessage(ctx, "b@example.com", noteID, "hey!"); err != nil {
			t.Fatalf("failed to reply: %v", err)
		}

		thread, err := service.Messages(ctx, "a@example.com", noteID)
		if err != nil {
			t.Fatalf("failed to list messages: %v", err)
		}
		if len(thread) != 2 || thread[0].Content != "hello" {
			t.Errorf("unexpected thread: %+v", thread)
		}
	})

	t.Run("outsider cannot chat", func(t *testing.T) {
		service, noteID := setup(t)
		if _, err := service.SendMessage(ctx, "c@example.com", noteID, "let me in"); !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
		if _, err := service.Messages(ctx, "c@example.com", noteID); !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("new message event carries counterpart unread count", func(t *testing.T) {
		service, noteID := setup(t)

		sub, err := service.broker.Subscribe(ctx, realtime.NoteChannel(noteID))
		if err != nil {
			t.Fatalf("failed to subscribe: %v", err)
		}
		defer sub.Close()

		if _, err := service.SendMessage(ctx, "a@example.com", noteID, "one"); err != nil {
			t.Fatalf("failed to send: %v", err)
		}
		if _, err := service.SendMessage(ctx, "a@example.com", noteID, "two"); err != nil {
			t.Fatalf("failed to send: %v", err)
		}

		var last realtime.Event
		for i := 0; i < 2; i++ {
			select {
			case last = <-sub.C:
			case <-time.After(time.Second):
				t.Fatal("missing event")
			}
		}
		if last.Type != realtime.EventNewMessage {
			t.Fatalf("expected new-message event, got %s", last.Type)
		}
		payload := decodeNewMessage(t, last)
		if payload.UnreadCount != 2 {
			t.Errorf("expected unread count 2 for receiver, got %d", payload.UnreadCount)
		}
	})

	t.Run("unread counting and mark read", func(t *testing.T) {
		service, noteID := setup(t)

		for _, content := range []string{"one", "two", "three"} {
			if _, err := service.SendMessage(ctx, "a@example.com", noteID, content); err != nil {
				t.Fatalf("failed to send: %v", err)
			}
		}
		if _, err := service.SendMessage(ctx, "b@example.com", noteID, "mine"); err != nil {
			t.Fatalf("failed to send: %v", err)
		}

		unread, err := service.UnreadCount(ctx, "b@example.com", noteID)
		if err != nil {
			t.Fatalf("failed to count unread: %v", err)
		}
		if unread != 3 {
			t.Errorf("expected 3 unread (own message excluded), got %d", unread)
		}

		after, err := service.MarkRead(ctx, "b@example.com", noteID)
		if err != nil {
			t.Fatalf("failed to mark read: %v", err)
		}
		if after != 0 {
			t.Errorf("expected 0 unread after mark read, got %d", after)
		}

		unread, _ = service.UnreadCount(ctx, "b@example.com", noteID)
		if unread != 0 {
			t.Errorf("expected unread to stay 0, got %d", unread)
		}

		// The sender's count is untouched by the receiver's watermark.
		unread, _ = service.UnreadCount(ctx, "a@example.com", noteID)
		if unread != 1 {
			t.Errorf("expected sender to still have 1 unread, got %d", unread)
		}
	})

	t.Run("mark read publishes the read event", func(t *testing.T) {
		service, noteID := setup(t)

		if _, err := service.SendMessage(ctx, "a@example.com", noteID, "hello"); err != nil {
			t.Fatalf("failed to send: %v", err)
		}

		sub, err := service.broker.Subscribe(ctx, realtime.NoteChannel(noteID))
		if err != nil {
			t.Fatalf("failed to subscribe: %v", err)
		}
		defer sub.Close()

		if _, err := service.MarkRead(ctx, "b@example.com", noteID); err != nil {
			t.Fatalf("failed to mark read: %v", err)
		}

		select {
		case event := <-sub.C:
			if event.Type != realtime.EventMessagesRead {
				t.Errorf("expected messages-read event, got %s", event.Type)
			}
		case <-time.After(time.Second):
			t.Fatal("missing read event")
		}
	})
}

func TestDeleteNote(t *testing.T) {
	ctx := context.Background()

	t.Run("participant delete removes the thread", func(t *testing.T) {
		service, _, _ := newTestService(t)
		created := createNote(t, service, "a@example.com")
		if _, err := service.SendMessage(ctx, "a@example.com", created.Note.ID, "hi"); err != nil {
			t.Fatalf("failed to send: %v", err)
		}

		if err := service.DeleteNote(ctx, "a@example.com", created.Note.ID); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := service.GetNote(ctx, "a@example.com", created.Note.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected note gone, got %v", err)
		}
	})

	t.Run("outsider cannot delete", func(t *testing.T) {
		service, _, _ := newTestService(t)
		created := createNote(t, service, "a@example.com")
		if err := service.DeleteNote(ctx, "c@example.com", created.Note.ID); !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestListNotes(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)
	created := createNote(t, service, "a@example.com")
	if _, err := service.GetNote(ctx, "b@example.com", created.Note.ID); err != nil {
		t.Fatalf("failed to claim: %v", err)
	}

	sent, err := service.ListNotes(ctx, "a@example.com", "sent")
	if err != nil || len(sent) != 1 {
		t.Errorf("expected 1 sent note, got %d (%v)", len(sent), err)
	}

	received, err := service.ListNotes(ctx, "b@example.com", "received")
	if err != nil || len(received) != 1 {
		t.Errorf("expected 1 received note, got %d (%v)", len(received), err)
	}

	if _, err := service.ListNotes(ctx, "a@example.com", "starred"); !errors.Is(err, shared.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown kind, got %v", err)
	}
}

func decodeNewMessage(t *testing.T, event realtime.Event) realtime.NewMessagePayload {
	t.Helper()
	var payload realtime.NewMessagePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	return payload
}
