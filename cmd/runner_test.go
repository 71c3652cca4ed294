package main

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/seranote/seranote/internal/auth"
	"github.com/seranote/seranote/internal/shared"
	tu "github.com/seranote/seranote/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("session tokens", func(t *testing.T) {
		newRunnerWithTokenPath := func(t *testing.T) *Runner {
			t.Helper()
			config := shared.DefaultConfig()
			config.Client.TokenPath = filepath.Join(t.TempDir(), "session")
			return NewRunner(RunnerOpts{Config: config})
		}

		t.Run("save and load roundtrip", func(t *testing.T) {
			runner := newRunnerWithTokenPath(t)

			if err := runner.saveToken("token-123"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			token, err := runner.loadToken()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token != "token-123" {
				t.Errorf("expected saved token back, got %q", token)
			}
		})

		t.Run("load without session", func(t *testing.T) {
			runner := newRunnerWithTokenPath(t)

			_, err := runner.loadToken()
			if !errors.Is(err, shared.ErrUnauthenticated) {
				t.Errorf("expected ErrUnauthenticated, got %v", err)
			}
		})

		t.Run("apiClient requires a session", func(t *testing.T) {
			runner := newRunnerWithTokenPath(t)

			if _, err := runner.apiClient(); !errors.Is(err, shared.ErrUnauthenticated) {
				t.Errorf("expected ErrUnauthenticated, got %v", err)
			}
		})

		t.Run("whoami verifies the saved session", func(t *testing.T) {
			runner := newRunnerWithTokenPath(t)
			runner.config.Auth.JWTSecret = "test-secret"

			verifier, err := auth.NewVerifier("test-secret")
			if err != nil {
				t.Fatalf("failed to create verifier: %v", err)
			}
			token, err := verifier.IssueToken(auth.Identity{
				UserID: "u1",
				Email:  "Someone@Example.com",
				Name:   "Someone",
			}, time.Hour)
			if err != nil {
				t.Fatalf("failed to issue token: %v", err)
			}
			if err := runner.saveToken(token); err != nil {
				t.Fatalf("failed to save token: %v", err)
			}

			identity, err := runner.whoami()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if identity.Email != "someone@example.com" {
				t.Errorf("expected normalized email, got %q", identity.Email)
			}
			if identity.UserID != "u1" {
				t.Errorf("expected subject back, got %q", identity.UserID)
			}
		})
	})
}
