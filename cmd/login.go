package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/seranote/seranote/internal/auth"
	"github.com/seranote/seranote/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// loginTimeout bounds the wait for the provider redirect.
const loginTimeout = 5 * time.Minute

// sessionValidity is how long a minted session token stays valid.
const sessionValidity = 30 * 24 * time.Hour

// userInfo is the provider's userinfo response.
type userInfo struct {
	Sub   string `json:"sub"`
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Login runs the authorization code flow against the configured provider,
// exchanges the code, fetches the account profile and saves a session token.
// The CLI signs the session with the same secret the server verifies with.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Auth
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("%w: auth client_id and client_secret are required", shared.ErrMissingConfig)
	}
	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return err
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
	}

	redirect, err := url.Parse(cfg.RedirectURI)
	if err != nil {
		return fmt.Errorf("%w: invalid redirect_uri: %v", shared.ErrInvalidConfig, err)
	}

	state := shared.GenerateID()
	codeCh := make(chan string, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := req.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Login complete. You can close this window.")
		select {
		case codeCh <- code:
		default:
		}
	})

	callbackServer := &http.Server{Addr: redirect.Host, Handler: mux}
	go callbackServer.ListenAndServe()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		callbackServer.Shutdown(shutdownCtx)
	}()

	authURL := oauthConfig.AuthCodeURL(state)
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to log in:\n%s\n", authURL)
	} else if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL to log in:\n%s\n", authURL)
	}

	var code string
	select {
	case code = <-codeCh:
	case <-time.After(loginTimeout):
		return fmt.Errorf("%w: timed out waiting for provider redirect", shared.ErrUnauthenticated)
	case <-ctx.Done():
		return ctx.Err()
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: code exchange failed: %v", shared.ErrUnauthenticated, err)
	}

	profile, err := r.fetchUserInfo(ctx, cfg.UserInfoURL, token.AccessToken)
	if err != nil {
		return err
	}

	userID := profile.Sub
	if userID == "" {
		userID = profile.ID
	}
	if userID == "" || profile.Email == "" {
		return fmt.Errorf("%w: provider profile missing id or email", shared.ErrUnauthenticated)
	}

	session, err := verifier.IssueToken(auth.Identity{
		UserID: userID,
		Email:  profile.Email,
		Name:   profile.Name,
	}, sessionValidity)
	if err != nil {
		return err
	}
	if err := r.saveToken(session); err != nil {
		return err
	}

	r.logger.Info("login successful", "email", shared.NormalizeEmail(profile.Email))
	return r.writePlain("✓ Logged in as %s\n", shared.NormalizeEmail(profile.Email))
}

// fetchUserInfo loads the account profile with the provider access token.
func (r *Runner) fetchUserInfo(ctx context.Context, endpoint, accessToken string) (*userInfo, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: auth userinfo_url is required", shared.ErrMissingConfig)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo returned %d", shared.ErrUnauthenticated, resp.StatusCode)
	}

	var profile userInfo
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	return &profile, nil
}
