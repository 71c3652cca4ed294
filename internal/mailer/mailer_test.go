package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seranote/seranote/internal/shared"
)

func TestSendShareEmail(t *testing.T) {
	t.Run("posts the message", func(t *testing.T) {
		var got sendRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/emails" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer key-123" {
				t.Errorf("missing api key header")
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("failed to decode body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client, err := NewClient(shared.MailConfig{APIURL: srv.URL, APIKey: "key-123", From: "Seranote <n@s.app>"})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		err = client.SendShareEmail(context.Background(), "b@example.com", "a@example.com", "for you", "https://seranote.app/notes/n1")
		if err != nil {
			t.Fatalf("failed to send: %v", err)
		}

		if len(got.To) != 1 || got.To[0] != "b@example.com" {
			t.Errorf("unexpected recipients: %v", got.To)
		}
		if !strings.Contains(got.HTML, "https://seranote.app/notes/n1") {
			t.Errorf("body missing share link: %s", got.HTML)
		}
	})

	t.Run("provider error surfaces as upstream", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client, _ := NewClient(shared.MailConfig{APIURL: srv.URL, APIKey: "key-123"})
		err := client.SendShareEmail(context.Background(), "b@example.com", "a", "t", "u")
		if !errors.Is(err, shared.ErrUpstream) {
			t.Errorf("expected ErrUpstream, got %v", err)
		}
	})

	t.Run("missing config", func(t *testing.T) {
		if _, err := NewClient(shared.MailConfig{}); err == nil {
			t.Error("expected error for empty mail config")
		}
	})
}
