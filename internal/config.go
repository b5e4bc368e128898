// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mvarkas/memex/internal/embed"
)

// VaultsEnvVar enumerates vault roots as a colon-separated list of
// filesystem paths. When set it takes precedence over the config file.
const VaultsEnvVar = "MEMEX_VAULTS"

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vaults   VaultsConfig      `yaml:"vaults"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Embedder EmbedderConfig    `yaml:"embedder"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	Watch    bool       `yaml:"watch"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds the optional HTTP API configuration. The MCP stdio
// surface is always served; HTTP is opt-in.
type HTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultsConfig lists the vault root directories to index.
type VaultsConfig struct {
	Paths []string `yaml:"paths"`
}

// SQLiteConfig holds the index database location.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// EmbedderConfig configures the external embedding service.
type EmbedderConfig struct {
	Enabled bool               `yaml:"enabled"`
	Ollama  embed.OllamaConfig `yaml:"ollama"`
}

// AuthConfig holds HTTP authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// VaultMap resolves the configured vault roots into an id -> absolute
// path map. MEMEX_VAULTS overrides the config file when set. Each
// path's final directory name becomes the vault id; a later path with
// the same final name overwrites an earlier one.
func (c *Config) VaultMap() map[string]string {
	paths := c.Vaults.Paths
	if env := os.Getenv(VaultsEnvVar); env != "" {
		paths = nil
		for _, p := range strings.Split(env, ":") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
	}

	vaults := make(map[string]string, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(expandHome(p))
		if err != nil {
			continue
		}
		vaults[filepath.Base(abs)] = abs
	}
	return vaults
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// NewDefaultConfig returns a new Config with sensible default values.
// The index database lives in the per-user data directory unless
// overridden.
func NewDefaultConfig() *Config {
	dbPath := "memex.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".local", "share", "memex", "memex.db")
	}
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Enabled: false,
				Port:    8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: dbPath,
		},
		Embedder: EmbedderConfig{
			Enabled: true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
