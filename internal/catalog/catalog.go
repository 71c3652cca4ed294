// Package catalog reads the song library from the hosted content store.
//
// Songs are authored in the CMS and fetched read-only over its query API.
// Audio files are stored as assets whose references resolve to CDN URLs.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/seranote/seranote/internal/shared"
)

// Song is a catalog entry. AudioDuration is the full track length in seconds,
// as reported by the asset pipeline.
type Song struct {
	ID            string  `json:"_id"`
	Title         string  `json:"title"`
	Artist        string  `json:"artist"`
	Album         string  `json:"album"`
	Slug          string  `json:"slug"`
	Category      string  `json:"category"`
	CoverURL      string  `json:"coverUrl"`
	AudioRef      string  `json:"audioRef"`
	AudioURL      string  `json:"audioUrl"`
	AudioDuration float64 `json:"audioDuration"`
}

// Validate checks that a catalog record is usable for clip selection.
func (s *Song) Validate() error {
	if s.Slug == "" {
		return fmt.Errorf("song is missing a slug")
	}
	if s.Title == "" {
		return fmt.Errorf("song %s is missing a title", s.Slug)
	}
	if s.AudioURL == "" && s.AudioRef == "" {
		return fmt.Errorf("song %s has no audio asset", s.Slug)
	}
	if s.AudioDuration <= 0 {
		return fmt.Errorf("song %s has no audio duration", s.Slug)
	}
	return nil
}

const songProjection = `{_id, title, artist, album, "slug": slug.current, category, "coverUrl": cover.asset->url, "audioRef": audio.asset._ref, "audioDuration": audio.asset->metadata.duration}`

// Client queries the content store's HTTP API.
type Client struct {
	baseURL    string
	projectID  string
	dataset    string
	cdnURL     string
	token      string
	httpClient *http.Client
}

// NewClient creates a new catalog Client from the catalog section of the config
func NewClient(cfg shared.CatalogConfig) (*Client, error) {
	if cfg.ProjectID == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: catalog project_id or base_url is required", shared.ErrMissingConfig)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.api.sanity.io", cfg.ProjectID)
	}
	dataset := cfg.Dataset
	if dataset == "" {
		dataset = "production"
	}
	cdnURL := strings.TrimRight(cfg.CDNURL, "/")
	if cdnURL == "" {
		cdnURL = "https://cdn.sanity.io"
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		projectID:  cfg.ProjectID,
		dataset:    dataset,
		cdnURL:     cdnURL,
		token:      cfg.Token,
		httpClient: http.DefaultClient,
	}, nil
}

// ListSongs fetches the whole catalog ordered by title.
func (c *Client) ListSongs(ctx context.Context) ([]*Song, error) {
	query := `*[_type == "song"] | order(title asc) ` + songProjection

	var songs []*Song
	if err := c.doQuery(ctx, query, &songs); err != nil {
		return nil, err
	}

	for _, song := range songs {
		c.resolveAudioURL(song)
	}
	return songs, nil
}

// GetSong fetches a single song by slug. Returns [shared.ErrSongNotFound] when
// the slug does not exist.
func (c *Client) GetSong(ctx context.Context, slug string) (*Song, error) {
	query := fmt.Sprintf(`*[_type == "song" && slug.current == %q][0] `+songProjection, slug)

	var song *Song
	if err := c.doQuery(ctx, query, &song); err != nil {
		return nil, err
	}
	if song == nil || song.ID == "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrSongNotFound, slug)
	}

	c.resolveAudioURL(song)
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}
	return song, nil
}

// doQuery performs an authenticated query against the content store and
// decodes the result envelope into result.
func (c *Client) doQuery(ctx context.Context, query string, result any) error {
	endpoint := fmt.Sprintf("%s/v2023-01-01/data/query/%s?query=%s", c.baseURL, c.dataset, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: catalog returned %d", shared.ErrUpstream, resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("failed to decode catalog result: %w", err)
	}
	return nil
}

// resolveAudioURL fills AudioURL from the asset reference when the query did
// not resolve it directly.
func (c *Client) resolveAudioURL(song *Song) {
	if song.AudioURL != "" || song.AudioRef == "" {
		return
	}
	if u, ok := AssetURL(c.cdnURL, c.projectID, c.dataset, song.AudioRef); ok {
		song.AudioURL = u
	}
}

// AssetURL resolves a file asset reference of the form "file-<id>-<ext>" to a
// CDN URL. Returns false when the reference does not match that shape.
func AssetURL(cdnURL, projectID, dataset, ref string) (string, bool) {
	parts := strings.Split(ref, "-")
	if len(parts) != 3 || parts[0] != "file" {
		return "", false
	}
	return fmt.Sprintf("%s/files/%s/%s/%s.%s", cdnURL, projectID, dataset, parts[1], parts[2]), true
}
