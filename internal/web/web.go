// Package web implements a server-rendered web application over the seranote API.
//
// # Web Application Implementation Plan
//
// # Architecture
//
// The web app mirrors the TUI's compose and chat flows with server-side
// rendering and progressive enhancement. Each view corresponds to a template
// and handler:
//
//  1. Song Picker: Server-rendered catalog grid backed by GET /songs
//  2. Clip Editor: Range slider over the track bound to clipStart/clipDuration
//  3. Compose Form: Title, message and optional share email, POST /notes
//  4. Share Page: The public /notes/{id} link; first open by a non-sender
//     claims the receiver slot via the API's GET /notes/{id}
//  5. Chat Thread: Message list with unread markers and a send box
//
// Core Components
//
//   - HTTP Server: net/http server with html/template rendering
//   - Service Integration: Uses the same notes.Service, catalog.Client and
//     realtime.Gateway as the API process; the web app runs in-process, not
//     as a second client
//   - Session Management: The session JWT in an HttpOnly cookie, validated
//     by the same auth.Verifier the API uses
//   - Event Consumer: Browser websocket to /notes/{id}/events for live chat
//
// Routes
//
//	GET  /                   → Sent/received note list (requires session)
//	GET  /compose            → Song picker + clip editor + form
//	POST /compose            → Create note, redirect to share page
//	GET  /notes/{id}         → Note view; claims receivership for non-senders
//	GET  /notes/{id}/chat    → Thread view with websocket bootstrap
//	GET  /login              → Provider redirect
//	GET  /login/callback     → Code exchange, set session cookie
//
// Templates
//
//   - base.html: Layout with navigation and session state
//   - notes.html: Sent/received tabs with unread badges
//   - compose.html: Catalog grid, clip slider, form
//   - note.html: Clip player with the confined playback window
//   - chat.html: Thread plus the websocket consumer script
//
// # Clip Playback
//
// The browser player enforces the same confinement the TUI playback does:
// seek to clipStart on play, pause a frame before clipStart+clipDuration,
// snap back to clipStart on replay. The audio element sources the CDN URL
// resolved by the catalog client.
//
// # Live Chat
//
// The chat page opens a websocket to /notes/{id}/events with the session
// token as a query parameter. new-message events append to the thread and
// bump the unread badge; messages-read events flip the sent-message check
// marks. Optimistic sends reuse the provisional-ID convention the TUI chat
// uses, de-duplicating against the echoed event by message ID.
//
// Implementation Tasks
//
//  1. HTTP server setup sharing the API's router and middleware
//  2. Template structure and static asset embedding
//  3. Session cookie middleware wrapping auth.Verifier
//  4. Note list handler with unread counts
//  5. Compose handlers over notes.Service.CreateNote
//  6. Share page handler driving the claim flow
//  7. Chat page handler plus websocket bootstrap script
//  8. Login handlers wrapping the provider exchange
//
// # Testing Strategy
//
// Use httptest:
//   - Seed an in-memory database through the repositories
//   - Stub the catalog with a fixed song set
//   - Validate rendered markup and redirect chains
//   - Drive the claim flow with two sessions and assert the 403
package web
