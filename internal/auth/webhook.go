package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/seranote/seranote/internal/shared"
)

// Webhook event types delivered by the identity provider.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// WebhookEvent is the envelope the identity provider posts on account changes.
type WebhookEvent struct {
	Type string      `json:"type"`
	Data WebhookUser `json:"data"`
}

// WebhookUser is the account payload inside a webhook event.
type WebhookUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// WebhookVerifier authenticates webhook deliveries with an HMAC-SHA256
// signature over the raw body.
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a new WebhookVerifier with the given shared secret
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", shared.ErrMissingConfig)
	}
	return &WebhookVerifier{secret: []byte(secret)}, nil
}

// Sign computes the hex signature for a payload. Exposed for tests and for
// local delivery tooling.
func (w *WebhookVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, w.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Parse checks the signature and decodes the event. A bad signature maps to
// [shared.ErrInvalidToken].
func (w *WebhookVerifier) Parse(body []byte, signature string) (*WebhookEvent, error) {
	expected := w.Sign(body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, fmt.Errorf("%w: webhook signature mismatch", shared.ErrInvalidToken)
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if event.Type == "" || event.Data.ID == "" {
		return nil, fmt.Errorf("%w: webhook event missing type or user id", shared.ErrValidation)
	}

	return &event, nil
}
