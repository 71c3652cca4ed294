package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	App      AppConfig      `toml:"app"`
	Auth     AuthConfig     `toml:"auth"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Database DatabaseConfig `toml:"database"`
	Mail     MailConfig     `toml:"mail"`
	Realtime RealtimeConfig `toml:"realtime"`
	Server   ServerConfig   `toml:"server"`
	Client   ClientConfig   `toml:"client"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	// BaseURL is the public URL notes are shared under, e.g. https://seranote.app
	BaseURL string `toml:"base_url"`
}

// AuthConfig contains identity provider settings. Sessions are minted by the
// provider; the server only verifies them.
type AuthConfig struct {
	JWTSecret     string `toml:"jwt_secret"`
	WebhookSecret string `toml:"webhook_secret"`
	ClientID      string `toml:"client_id"`
	ClientSecret  string `toml:"client_secret"`
	RedirectURI   string `toml:"redirect_uri"`
	AuthURL       string `toml:"auth_url"`
	TokenURL      string `toml:"token_url"`
	UserInfoURL   string `toml:"userinfo_url"`
}

// CatalogConfig contains headless CMS settings for the song catalog.
type CatalogConfig struct {
	ProjectID string `toml:"project_id"`
	Dataset   string `toml:"dataset"`
	BaseURL   string `toml:"base_url"`
	CDNURL    string `toml:"cdn_url"`
	Token     string `toml:"token"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// MailConfig contains the transactional mail API settings used for share emails.
type MailConfig struct {
	APIURL string `toml:"api_url"`
	APIKey string `toml:"api_key"`
	From   string `toml:"from"`
}

// RealtimeConfig contains pub/sub settings. When Redis.Addr is empty the
// server falls back to the in-process broker.
type RealtimeConfig struct {
	Redis RedisConfig `toml:"redis"`
}

// RedisConfig contains redis connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host      string  `toml:"host"`
	Port      int     `toml:"port"`
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
}

// ClientConfig contains settings for the CLI/TUI client talking to a server.
type ClientConfig struct {
	ServerURL string `toml:"server_url"`
	TokenPath string `toml:"token_path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
