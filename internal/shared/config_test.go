package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("loads a valid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials.spotify]
client_id = "abc123"
redirect_uri = "http://localhost:9090/callback"
scopes = ["user-read-private"]

[server]
host = "localhost"
port = 9090

[diagnostics]
enabled = true
path = "/tmp/diag.db"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if config.Credentials.Spotify.ClientID != "abc123" {
			t.Errorf("unexpected client_id %q", config.Credentials.Spotify.ClientID)
		}
		if config.Server.Port != 9090 {
			t.Errorf("unexpected port %d", config.Server.Port)
		}
		if !config.Diagnostics.Enabled {
			t.Error("expected diagnostics enabled")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("malformed TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[credentials\nbroken"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Server.Host != "localhost" || config.Server.Port != 8080 {
		t.Errorf("unexpected server defaults %+v", config.Server)
	}
	if config.Credentials.Spotify.RedirectURI != "http://localhost:8080/callback" {
		t.Errorf("unexpected redirect URI %q", config.Credentials.Spotify.RedirectURI)
	}
	if len(config.Credentials.Spotify.Scopes) == 0 {
		t.Error("expected default scopes")
	}
	if config.Diagnostics.Enabled {
		t.Error("diagnostics should be off by default")
	}
}

func TestCreateConfigFile(t *testing.T) {
	t.Run("writes the example config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("created config does not load: %v", err)
		}
		if config.Server.Port != 8080 {
			t.Errorf("unexpected port %d", config.Server.Port)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		err := CreateConfigFile(path)
		if err == nil {
			t.Fatal("expected an error for an existing file")
		}
		if !strings.Contains(err.Error(), "already exists") {
			t.Errorf("unexpected error %v", err)
		}
	})
}

func TestScopeString(t *testing.T) {
	t.Run("joins configured scopes", func(t *testing.T) {
		s := SpotifyConfig{Scopes: []string{"a", "b"}}
		if got := s.ScopeString(); got != "a b" {
			t.Errorf("expected 'a b', got %q", got)
		}
	})

	t.Run("falls back to defaults", func(t *testing.T) {
		s := SpotifyConfig{}
		got := s.ScopeString()
		if !strings.Contains(got, "playlist-modify-private") {
			t.Errorf("expected default scopes, got %q", got)
		}
	})
}
