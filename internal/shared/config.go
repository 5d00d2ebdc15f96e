package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Store       StoreConfig       `toml:"store"`
	Server      ServerConfig      `toml:"server"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the Spotify application registration.
//
// PKCE flows carry no client secret; only the public client ID, the
// registered redirect URI, and the requested scopes are needed.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id"`
	RedirectURI string   `toml:"redirect_uri"`
	Scopes      []string `toml:"scopes"`
}

// ScopeString returns the configured scopes as a space-delimited string,
// falling back to the default scope set when none are configured.
func (s SpotifyConfig) ScopeString() string {
	if len(s.Scopes) == 0 {
		return strings.Join(DefaultScopes(), " ")
	}
	return strings.Join(s.Scopes, " ")
}

// DefaultScopes returns the scopes playlist generation requires.
func DefaultScopes() []string {
	return []string{
		"user-read-private",
		"user-top-read",
		"user-library-read",
		"playlist-modify-public",
		"playlist-modify-private",
	}
}

// StoreConfig contains credential store settings.
type StoreConfig struct {
	Path string `toml:"path"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DiagnosticsConfig contains settings for the sqlite diagnostic log.
type DiagnosticsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
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
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
