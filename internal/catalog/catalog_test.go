package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seranote/seranote/internal/shared"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(shared.CatalogConfig{
		ProjectID: "abc123",
		Dataset:   "production",
		BaseURL:   srv.URL,
		CDNURL:    "https://cdn.example.com",
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestListSongs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "" {
			t.Error("expected a query parameter")
		}
		fmt.Fprint(w, `{"result": [
			{"_id": "s1", "title": "Midnight Drive", "artist": "The Lanes", "album": "Night Air",
			 "slug": "midnight-drive", "category": "indie",
			 "audioRef": "file-deadbeef-mp3", "audioDuration": 201.4},
			{"_id": "s2", "title": "Aftermath", "artist": "Holloway", "slug": "aftermath",
			 "audioUrl": "https://cdn.example.com/files/abc123/production/cafe.mp3", "audioDuration": 188}
		]}`)
	})

	songs, err := client.ListSongs(context.Background())
	if err != nil {
		t.Fatalf("failed to list songs: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(songs))
	}

	want := "https://cdn.example.com/files/abc123/production/deadbeef.mp3"
	if songs[0].AudioURL != want {
		t.Errorf("expected resolved asset URL %s, got %s", want, songs[0].AudioURL)
	}
	if songs[1].AudioURL != "https://cdn.example.com/files/abc123/production/cafe.mp3" {
		t.Errorf("direct audio URL must pass through, got %s", songs[1].AudioURL)
	}
}

func TestGetSong(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"result": {"_id": "s1", "title": "Midnight Drive", "artist": "The Lanes",
				"slug": "midnight-drive", "audioRef": "file-deadbeef-mp3", "audioDuration": 201.4}}`)
		})

		song, err := client.GetSong(context.Background(), "midnight-drive")
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}
		if song.Title != "Midnight Drive" || song.AudioDuration != 201.4 {
			t.Errorf("unexpected song: %+v", song)
		}
	})

	t.Run("missing slug", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"result": null}`)
		})

		_, err := client.GetSong(context.Background(), "nope")
		if !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("upstream error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.GetSong(context.Background(), "midnight-drive")
		if !errors.Is(err, shared.ErrUpstream) {
			t.Errorf("expected ErrUpstream, got %v", err)
		}
	})

	t.Run("record without duration", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"result": {"_id": "s1", "title": "Broken", "slug": "broken", "audioRef": "file-x-mp3"}}`)
		})

		if _, err := client.GetSong(context.Background(), "broken"); err == nil {
			t.Error("expected error for song without audio duration")
		}
	})
}

func TestAssetURL(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
		ok   bool
	}{
		{"file ref", "file-deadbeef-mp3", "https://cdn.example.com/files/abc123/production/deadbeef.mp3", true},
		{"image ref", "image-deadbeef-200x200-png", "", false},
		{"garbage", "nope", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AssetURL("https://cdn.example.com", "abc123", "production", tt.ref)
			if ok != tt.ok || got != tt.want {
				t.Errorf("AssetURL(%q) = %q, %v; want %q, %v", tt.ref, got, ok, tt.want, tt.ok)
			}
		})
	}
}
