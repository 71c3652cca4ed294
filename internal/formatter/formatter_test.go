package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/seranote/seranote/internal/catalog"
	"github.com/seranote/seranote/internal/models"
)

func TestSongsToTable(t *testing.T) {
	songs := []*catalog.Song{
		{Slug: "midnight-drive", Title: "Midnight Drive", Artist: "The Lanterns",
			Album: "Night Routes", AudioDuration: 201},
	}

	out, err := SongsToTable(songs)
	if err != nil {
		t.Fatalf("failed to render: %v", err)
	}

	text := string(out)
	if !strings.Contains(text, "midnight-drive") || !strings.Contains(text, "3:21") {
		t.Errorf("table missing content:\n%s", text)
	}
}

func testNote() *models.Note {
	return &models.Note{
		ID:           "n1",
		Title:        "for you",
		Message:      "listen to this",
		SongID:       "midnight-drive",
		ClipStart:    30,
		ClipDuration: 40,
		SenderEmail:  "a@example.com",
		CreatedAt:    time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestNotesToTable(t *testing.T) {
	out, err := NotesToTable([]*models.Note{testNote()})
	if err != nil {
		t.Fatalf("failed to render: %v", err)
	}

	text := string(out)
	if !strings.Contains(text, "TITLE") || !strings.Contains(text, "for you") {
		t.Errorf("table missing content:\n%s", text)
	}
	if !strings.Contains(text, "-") {
		t.Errorf("expected dash for unclaimed receiver:\n%s", text)
	}
}

func TestNoteToText(t *testing.T) {
	out := NoteToText(testNote())
	text := string(out)

	if !strings.Contains(text, "30.0s – 70.0s (40s)") {
		t.Errorf("missing clip window:\n%s", text)
	}
	if strings.Contains(text, "To:") {
		t.Errorf("unclaimed note must not render a receiver:\n%s", text)
	}
}

func TestThreadToText(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 15, 0, 0, time.UTC)
	thread := []*models.Message{
		{ID: "m1", SenderEmail: "a@example.com", Content: "hello", CreatedAt: now},
		{ID: "m2", SenderEmail: "b@example.com", Content: "hey", CreatedAt: now,
			Sender: &models.UserSummary{Name: "Bea"}},
	}

	out := string(ThreadToText(thread, "a@example.com"))
	if !strings.Contains(out, "Bea: hey") {
		t.Errorf("expected sender name in output:\n%s", out)
	}
	if !strings.Contains(out, "* [09:15] Bea") {
		t.Errorf("expected unread marker on foreign message:\n%s", out)
	}
	if strings.Contains(out, "* [09:15] a@example.com") {
		t.Errorf("own message must not carry unread marker:\n%s", out)
	}
}

func TestToJSON(t *testing.T) {
	out, err := ToJSON(map[string]int{"unread": 2})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if !strings.Contains(string(out), `"unread": 2`) {
		t.Errorf("unexpected JSON: %s", out)
	}
}
