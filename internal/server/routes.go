package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/seranote/seranote/internal/auth"
	"github.com/seranote/seranote/internal/catalog"
	"github.com/seranote/seranote/internal/notes"
	"github.com/seranote/seranote/internal/realtime"
	"github.com/seranote/seranote/internal/repositories"
	"github.com/seranote/seranote/internal/shared"
)

// RouterDeps carries everything the route table needs.
type RouterDeps struct {
	Service         *notes.Service
	Catalog         *catalog.Client
	Users           *repositories.UserRepository
	Gateway         *realtime.Gateway
	Verifier        *auth.Verifier
	WebhookVerifier *auth.WebhookVerifier
	Logger          *log.Logger
}

// NewRouter assembles the service's route table and middleware stack.
func NewRouter(cfg shared.ServerConfig, deps RouterDeps) *BasicRouter {
	router := NewBasicRouter()
	router.Use(
		LoggingMiddleware(deps.Logger),
		CORSMiddleware(),
		RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst),
		AuthMiddleware(deps.Verifier),
	)

	router.Handler(NewNotesHandler(deps.Service, deps.Logger))
	router.Handler(NewEventsHandler(deps.Service, deps.Gateway, deps.Logger))
	router.Handler(NewSongsHandler(deps.Catalog, deps.Logger))
	router.Handler(NewWebhookHandler(deps.WebhookVerifier, deps.Users, deps.Logger))

	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	// CORS preflights never match the method-qualified patterns above; the
	// middleware stack answers them from this catch-all.
	router.Handle(http.MethodOptions, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	return router
}
