// Package client is the HTTP and websocket client the CLI talks to a
// seranote server with.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/seranote/seranote/internal/catalog"
	"github.com/seranote/seranote/internal/models"
	"github.com/seranote/seranote/internal/notes"
	"github.com/seranote/seranote/internal/realtime"
	"github.com/seranote/seranote/internal/shared"
)

// Client calls a seranote server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Client for the given server URL and session token
func NewClient(cfg shared.ClientConfig, token string) (*Client, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("%w: client server_url is required", shared.ErrMissingConfig)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.ServerURL, "/"),
		token:      token,
		httpClient: http.DefaultClient,
	}, nil
}

// doRequest performs an authenticated request and decodes the JSON response
// into result when result is non-nil.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError maps an error response back onto the shared sentinels so CLI
// code can branch the same way server code does.
func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	detail := body.Error
	if detail == "" {
		detail = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrUnauthenticated, detail)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", shared.ErrForbidden, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, detail)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", shared.ErrValidation, detail)
	default:
		return fmt.Errorf("%w: server returned %d: %s", shared.ErrUpstream, resp.StatusCode, detail)
	}
}

// ShareURL returns the public link for a note on this server.
func (c *Client) ShareURL(noteID string) string {
	return c.baseURL + "/notes/" + url.PathEscape(noteID)
}

// ListSongs fetches the song catalog.
func (c *Client) ListSongs(ctx context.Context) ([]*catalog.Song, error) {
	var songs []*catalog.Song
	err := c.doRequest(ctx, http.MethodGet, "/songs", nil, &songs)
	return songs, err
}

// GetSong fetches one catalog entry by slug.
func (c *Client) GetSong(ctx context.Context, slug string) (*catalog.Song, error) {
	var song catalog.Song
	if err := c.doRequest(ctx, http.MethodGet, "/songs/"+url.PathEscape(slug), nil, &song); err != nil {
		return nil, err
	}
	return &song, nil
}

// CreateNote composes a new note.
func (c *Client) CreateNote(ctx context.Context, input notes.CreateNoteInput) (*notes.NoteView, error) {
	var view notes.NoteView
	if err := c.doRequest(ctx, http.MethodPost, "/notes", input, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ListNotes fetches the caller's notes; kind is "sent" or "received".
func (c *Client) ListNotes(ctx context.Context, kind string) ([]*models.Note, error) {
	endpoint := "/notes"
	if kind != "" {
		endpoint += "?type=" + url.QueryEscape(kind)
	}
	var list []*models.Note
	err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &list)
	return list, err
}

// GetNote opens a note. On a first visit by a non-sender this claims the
// receiver slot server-side.
func (c *Client) GetNote(ctx context.Context, id string) (*notes.NoteView, error) {
	var view notes.NoteView
	if err := c.doRequest(ctx, http.MethodGet, "/notes/"+url.PathEscape(id), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// DeleteNote removes a note and its thread.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.doRequest(ctx, http.MethodDelete, "/notes/"+url.PathEscape(id), nil, nil)
}

// Messages fetches a note's thread, oldest first.
func (c *Client) Messages(ctx context.Context, noteID string) ([]*models.Message, error) {
	var thread []*models.Message
	err := c.doRequest(ctx, http.MethodGet, "/notes/"+url.PathEscape(noteID)+"/messages", nil, &thread)
	return thread, err
}

// SendMessage posts a chat message to the note's thread.
func (c *Client) SendMessage(ctx context.Context, noteID, content string) (*models.Message, error) {
	var message models.Message
	body := map[string]string{"content": content}
	if err := c.doRequest(ctx, http.MethodPost, "/notes/"+url.PathEscape(noteID)+"/messages", body, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// MarkRead advances the caller's read watermark on the note.
func (c *Client) MarkRead(ctx context.Context, noteID string) error {
	return c.doRequest(ctx, http.MethodPatch, "/notes/"+url.PathEscape(noteID)+"/messages", nil, nil)
}

// SubscribeEvents opens the note's websocket event stream. Events arrive on
// the returned channel until the context ends or the connection drops, after
// which the channel closes.
func (c *Client) SubscribeEvents(ctx context.Context, noteID string) (<-chan realtime.Event, error) {
	wsURL, err := c.eventsURL(noteID)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event stream: %w", err)
	}

	events := make(chan realtime.Event, 16)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var event realtime.Event
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	return events, nil
}

func (c *Client) eventsURL(noteID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/notes/" + url.PathEscape(noteID) + "/events"
	u.RawQuery = "token=" + url.QueryEscape(c.token)
	return u.String(), nil
}
