package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/seranote/seranote/internal/models"
	"github.com/seranote/seranote/internal/shared"
)

func TestEvents(t *testing.T) {
	t.Run("new message payload", func(t *testing.T) {
		msg := &models.Message{ID: "m1", NoteID: "n1", SenderEmail: "a@example.com", Content: "hi"}
		event, err := NewMessageEvent(msg, 3)
		if err != nil {
			t.Fatalf("failed to build event: %v", err)
		}
		if event.Type != EventNewMessage {
			t.Errorf("expected type %s, got %s", EventNewMessage, event.Type)
		}

		var payload NewMessagePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if payload.Message.ID != "m1" || payload.UnreadCount != 3 {
			t.Errorf("unexpected payload: %+v", payload)
		}
	})

	t.Run("messages read payload", func(t *testing.T) {
		event, err := MessagesReadEvent("b@example.com", 0)
		if err != nil {
			t.Fatalf("failed to build event: %v", err)
		}

		var payload MessagesReadPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if payload.UserEmail != "b@example.com" || payload.UnreadCount != 0 {
			t.Errorf("unexpected payload: %+v", payload)
		}
	})

	t.Run("channel name", func(t *testing.T) {
		if NoteChannel("abc") != "note-abc" {
			t.Errorf("unexpected channel name: %s", NoteChannel("abc"))
		}
	})
}

func TestMemoryBroker(t *testing.T) {
	ctx := context.Background()

	t.Run("publish reaches subscribers on the channel", func(t *testing.T) {
		broker := NewMemoryBroker(shared.NewLogger(nil))
		defer broker.Close()

		sub, err := broker.Subscribe(ctx, "note-1")
		if err != nil {
			t.Fatalf("failed to subscribe: %v", err)
		}
		defer sub.Close()

		other, err := broker.Subscribe(ctx, "note-2")
		if err != nil {
			t.Fatalf("failed to subscribe: %v", err)
		}
		defer other.Close()

		event, _ := MessagesReadEvent("a@example.com", 0)
		if err := broker.Publish(ctx, "note-1", event); err != nil {
			t.Fatalf("failed to publish: %v", err)
		}

		select {
		case got := <-sub.C:
			if got.Type != EventMessagesRead {
				t.Errorf("unexpected event: %+v", got)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber never received the event")
		}

		select {
		case got := <-other.C:
			t.Errorf("other channel must not receive the event: %+v", got)
		default:
		}
	})

	t.Run("close ends subscriptions", func(t *testing.T) {
		broker := NewMemoryBroker(shared.NewLogger(nil))
		sub, _ := broker.Subscribe(ctx, "note-1")
		broker.Close()

		if _, ok := <-sub.C; ok {
			t.Error("expected subscription channel closed")
		}
	})

	t.Run("double close is safe", func(t *testing.T) {
		broker := NewMemoryBroker(shared.NewLogger(nil))
		defer broker.Close()
		sub, _ := broker.Subscribe(ctx, "note-1")
		sub.Close()
		sub.Close()
	})
}

func TestGateway(t *testing.T) {
	broker := NewMemoryBroker(shared.NewLogger(nil))
	defer broker.Close()
	gateway := NewGateway(broker, shared.NewLogger(nil))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gateway.Serve(w, r, NoteChannel("n1"))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	// The server subscribes during the upgrade handshake; give it a beat.
	deadline := time.Now().Add(2 * time.Second)
	for {
		event, _ := MessagesReadEvent("a@example.com", 0)
		if err := broker.Publish(context.Background(), NoteChannel("n1"), event); err != nil {
			t.Fatalf("failed to publish: %v", err)
		}

		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		var got Event
		if err := conn.ReadJSON(&got); err == nil {
			if got.Type != EventMessagesRead {
				t.Errorf("unexpected event: %+v", got)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("websocket client never received the event")
		}
	}
}
