// Package auth verifies session tokens minted by the identity provider and
// validates account webhooks.
//
// Sessions are HS256 JWTs carrying the provider user ID, email and display
// name. The server never mints end-user tokens itself outside of the login
// flow; it only verifies them on each request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/seranote/seranote/internal/shared"
)

// Identity is the authenticated caller extracted from a session token.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// Claims extends the registered JWT claims with the provider account fields.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Verifier validates bearer tokens against a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a new Verifier with the given signing secret
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: jwt_secret is required", shared.ErrMissingConfig)
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// IssueToken signs a session token for the given identity. Used by the login
// flow after the provider exchange succeeds.
func (v *Verifier) IssueToken(id Identity, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Email: shared.NormalizeEmail(id.Email),
		Name:  id.Name,
	})

	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a session token, returning the caller's
// identity. Expired tokens map to [shared.ErrTokenExpired], everything else
// invalid maps to [shared.ErrInvalidToken].
func (v *Verifier) VerifyToken(tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, shared.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, shared.ErrInvalidToken
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing subject or email", shared.ErrInvalidToken)
	}

	return &Identity{
		UserID: claims.Subject,
		Email:  shared.NormalizeEmail(claims.Email),
		Name:   claims.Name,
	}, nil
}

type contextKey struct{}

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext extracts the authenticated identity set by the auth
// middleware. The boolean reports whether the request was authenticated.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok
}
