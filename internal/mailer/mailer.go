// Package mailer sends transactional email through a hosted mail API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/seranote/seranote/internal/shared"
)

// Client posts messages to the mail provider's HTTP API.
type Client struct {
	apiURL     string
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewClient creates a new mail Client from the mail section of the config
func NewClient(cfg shared.MailConfig) (*Client, error) {
	if cfg.APIURL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: mail api_url and api_key are required", shared.ErrMissingConfig)
	}
	from := cfg.From
	if from == "" {
		from = "Seranote <notes@seranote.app>"
	}
	return &Client{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		apiKey:     cfg.APIKey,
		from:       from,
		httpClient: http.DefaultClient,
	}, nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendShareEmail emails the note link to the chosen recipient.
func (c *Client) SendShareEmail(ctx context.Context, to, senderName, noteTitle, shareURL string) error {
	subject := fmt.Sprintf("%s sent you a note", senderName)
	body := fmt.Sprintf(
		`<p>%s paired a song with a note for you: <strong>%s</strong></p><p><a href="%s">Open it</a></p>`,
		html.EscapeString(senderName), html.EscapeString(noteTitle), shareURL,
	)
	return c.send(ctx, sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    body,
	})
}

func (c *Client) send(ctx context.Context, payload sendRequest) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/emails", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: mail provider returned %d", shared.ErrUpstream, resp.StatusCode)
	}
	return nil
}
