package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrUnauthenticated = fmt.Errorf("not authenticated")
	ErrInvalidToken    = fmt.Errorf("invalid session token")
	ErrTokenExpired    = fmt.Errorf("session token expired")

	// Access errors. NotFound and Forbidden surface similarly to API callers
	// but stay distinct internally: NotFound must never reach the receiver
	// claim branch.
	ErrNotFound  = fmt.Errorf("not found")
	ErrForbidden = fmt.Errorf("forbidden")

	// Validation errors
	ErrValidation     = fmt.Errorf("validation failed")
	ErrBlankContent   = fmt.Errorf("message content is required")
	ErrClipOutOfRange = fmt.Errorf("clip duration out of range")

	// Upstream collaborator errors (catalog, pub/sub, mail)
	ErrUpstream           = fmt.Errorf("upstream request failed")
	ErrSongNotFound       = fmt.Errorf("song not found")
	ErrCatalogUnavailable = fmt.Errorf("song catalog unavailable")
)
