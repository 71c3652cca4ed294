package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./seranote.db" {
			t.Errorf("expected database path ./seranote.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Catalog.CDNURL != "https://cdn.sanity.io" {
			t.Errorf("expected catalog CDN URL https://cdn.sanity.io, got %s", config.Catalog.CDNURL)
		}

		if config.Auth.ClientID != "your_provider_client_id" {
			t.Errorf("expected auth client_id your_provider_client_id, got %s", config.Auth.ClientID)
		}

		if config.Realtime.Redis.Addr != "" {
			t.Errorf("expected empty redis addr by default, got %s", config.Realtime.Redis.Addr)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			t.Fatal("config file was not created")
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if loaded.Server.Port != DefaultConfig().Server.Port {
			t.Errorf("created config does not match defaults: got port %d", loaded.Server.Port)
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("expected error when config file already exists")
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("LoadConfig invalid toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for invalid toml")
		}
	})
}
