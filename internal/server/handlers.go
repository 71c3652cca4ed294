package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/seranote/seranote/internal/auth"
	"github.com/seranote/seranote/internal/catalog"
	"github.com/seranote/seranote/internal/models"
	"github.com/seranote/seranote/internal/notes"
	"github.com/seranote/seranote/internal/realtime"
	"github.com/seranote/seranote/internal/repositories"
	"github.com/seranote/seranote/internal/shared"
)

// identity extracts the authenticated caller, or fails with
// [shared.ErrUnauthenticated].
func identity(r *http.Request) (*auth.Identity, error) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil, shared.ErrUnauthenticated
	}
	return id, nil
}

// NotesHandler serves the note and message endpoints.
type NotesHandler struct {
	service *notes.Service
	logger  *log.Logger
}

// NewNotesHandler creates a new NotesHandler over the note service
func NewNotesHandler(service *notes.Service, logger *log.Logger) *NotesHandler {
	return &NotesHandler{service: service, logger: logger}
}

// Routes returns the method-qualified patterns this handler serves.
func (h *NotesHandler) Routes() []string {
	return []string{
		"POST /notes",
		"GET /notes",
		"GET /notes/{id}",
		"DELETE /notes/{id}",
		"GET /notes/{id}/messages",
		"POST /notes/{id}/messages",
		"PATCH /notes/{id}/messages",
	}
}

func (h *NotesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	id := r.PathValue("id")
	onThread := strings.HasSuffix(r.URL.Path, "/messages")

	switch {
	case r.Method == http.MethodPost && id == "":
		h.create(w, r, caller)
	case r.Method == http.MethodGet && id == "":
		h.list(w, r, caller)
	case r.Method == http.MethodGet && onThread:
		h.listMessages(w, r, caller, id)
	case r.Method == http.MethodPost && onThread:
		h.sendMessage(w, r, caller, id)
	case r.Method == http.MethodPatch && onThread:
		h.markRead(w, r, caller, id)
	case r.Method == http.MethodGet:
		h.get(w, r, caller, id)
	case r.Method == http.MethodDelete:
		h.delete(w, r, caller, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *NotesHandler) create(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	var input notes.CreateNoteInput
	if err := decodeBody(r.Body, &input); err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.service.CreateNote(r.Context(), caller.Email, input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *NotesHandler) list(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	list, err := h.service.ListNotes(r.Context(), caller.Email, r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if list == nil {
		list = []*models.Note{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *NotesHandler) get(w http.ResponseWriter, r *http.Request, caller *auth.Identity, id string) {
	view, err := h.service.GetNote(r.Context(), caller.Email, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *NotesHandler) delete(w http.ResponseWriter, r *http.Request, caller *auth.Identity, id string) {
	if err := h.service.DeleteNote(r.Context(), caller.Email, id); err != nil {
		writeError(w, h.logger, maskForbidden(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *NotesHandler) listMessages(w http.ResponseWriter, r *http.Request, caller *auth.Identity, id string) {
	thread, err := h.service.Messages(r.Context(), caller.Email, id)
	if err != nil {
		writeError(w, h.logger, maskForbidden(err))
		return
	}
	if thread == nil {
		thread = []*models.Message{}
	}
	writeJSON(w, http.StatusOK, thread)
}

func (h *NotesHandler) sendMessage(w http.ResponseWriter, r *http.Request, caller *auth.Identity, id string) {
	var input struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r.Body, &input); err != nil {
		writeError(w, h.logger, err)
		return
	}

	message, err := h.service.SendMessage(r.Context(), caller.Email, id, input.Content)
	if err != nil {
		writeError(w, h.logger, maskForbidden(err))
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (h *NotesHandler) markRead(w http.ResponseWriter, r *http.Request, caller *auth.Identity, id string) {
	unread, err := h.service.MarkRead(r.Context(), caller.Email, id)
	if err != nil {
		writeError(w, h.logger, maskForbidden(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "unreadCount": unread})
}

// SongsHandler serves the read-only song catalog.
type SongsHandler struct {
	catalog *catalog.Client
	logger  *log.Logger
}

// NewSongsHandler creates a new SongsHandler over the catalog client
func NewSongsHandler(client *catalog.Client, logger *log.Logger) *SongsHandler {
	return &SongsHandler{catalog: client, logger: logger}
}

// Routes returns the method-qualified patterns this handler serves.
func (h *SongsHandler) Routes() []string {
	return []string{"GET /songs", "GET /songs/{slug}"}
}

func (h *SongsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if slug := r.PathValue("slug"); slug != "" {
		song, err := h.catalog.GetSong(r.Context(), slug)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, song)
		return
	}

	songs, err := h.catalog.ListSongs(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if songs == nil {
		songs = []*catalog.Song{}
	}
	writeJSON(w, http.StatusOK, songs)
}

// WebhookHandler ingests identity provider account events.
type WebhookHandler struct {
	verifier *auth.WebhookVerifier
	users    *repositories.UserRepository
	logger   *log.Logger
}

// NewWebhookHandler creates a new WebhookHandler over the user repository
func NewWebhookHandler(verifier *auth.WebhookVerifier, users *repositories.UserRepository, logger *log.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, users: users, logger: logger}
}

// Routes returns the method-qualified patterns this handler serves.
func (h *WebhookHandler) Routes() []string {
	return []string{"POST /webhooks/identity"}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	event, err := h.verifier.Parse(body, r.Header.Get("X-Webhook-Signature"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	switch event.Type {
	case auth.EventUserCreated, auth.EventUserUpdated:
		err = h.users.Upsert(&models.User{
			ID:    event.Data.ID,
			Email: event.Data.Email,
			Name:  event.Data.Name,
		})
	case auth.EventUserDeleted:
		err = h.users.Delete(event.Data.ID)
		if err == shared.ErrNotFound {
			// Deletes are idempotent; the provider retries on non-2xx.
			err = nil
		}
	default:
		h.logger.Debug("ignoring webhook event", "type", event.Type)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// EventsHandler upgrades participants onto the note's event stream.
type EventsHandler struct {
	service *notes.Service
	gateway *realtime.Gateway
	logger  *log.Logger
}

// NewEventsHandler creates a new EventsHandler over the gateway
func NewEventsHandler(service *notes.Service, gateway *realtime.Gateway, logger *log.Logger) *EventsHandler {
	return &EventsHandler{service: service, gateway: gateway, logger: logger}
}

// Routes returns the method-qualified patterns this handler serves.
func (h *EventsHandler) Routes() []string {
	return []string{"GET /notes/{id}/events"}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	id := r.PathValue("id")
	if err := h.service.Authorize(r.Context(), caller.Email, id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.gateway.Serve(w, r, realtime.NoteChannel(id))
}

// maskForbidden hides the participant check as not-found on thread and delete
// routes, so outsiders cannot distinguish a note they are shut out of from one
// that does not exist. The note fetch route keeps the explicit 403: it is the
// claim surface, where "exists but taken" is part of the contract.
func maskForbidden(err error) error {
	if errors.Is(err, shared.ErrForbidden) {
		return shared.ErrNotFound
	}
	return err
}

func decodeBody(body io.Reader, v any) error {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return shared.ErrValidation
	}
	return nil
}
