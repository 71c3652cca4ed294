// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/seranote/seranote/internal/catalog"
	"github.com/seranote/seranote/internal/shared"
)

// MockCatalog is a test double for the song catalog with a fixed set of songs.
type MockCatalog struct {
	Songs map[string]*catalog.Song
}

func (m *MockCatalog) GetSong(_ context.Context, slug string) (*catalog.Song, error) {
	song, ok := m.Songs[slug]
	if !ok {
		return nil, shared.ErrSongNotFound
	}
	return song, nil
}

// MockMailer records share emails instead of sending them.
type MockMailer struct {
	Sent []string
	Err  error
}

func (m *MockMailer) SendShareEmail(_ context.Context, to, _, _, shareURL string) error {
	m.Sent = append(m.Sent, to+" "+shareURL)
	return m.Err
}

// MustOpenDB opens a migrated in-memory database pinned to one connection.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

var _ io.Writer = (*FWriter)(nil)
