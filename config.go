package folio

import (
	"errors"
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `toml:"name"`        // Site name (default "Portfolio")
	URL         string `toml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `toml:"description"` // Site description for RSS and meta tags
	Author      string `toml:"author"`      // Author name for JSON-LD

	Addr         string `toml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `toml:"database_path"` // SQLite path (default "data/site.db")

	GitHubClientID     string `toml:"github_client_id"`     // Required: GitHub OAuth app client id
	GitHubClientSecret string `toml:"github_client_secret"` // Required: GitHub OAuth app client secret

	AdminPassword string `toml:"admin_password"` // Required: admin elevation password
	SessionSecret string `toml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `toml:"cookie_secure"`  // Set true for HTTPS

	HomeCacheTTL time.Duration `toml:"-"` // Homepage cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/site.db"
	}
	if c.HomeCacheTTL == 0 {
		c.HomeCacheTTL = 5 * time.Minute
	}
}

func (c *SiteConfig) validate() error {
	if c.GitHubClientID == "" || c.GitHubClientSecret == "" {
		return errors.New("folio: GitHubClientID and GitHubClientSecret are required")
	}
	if c.AdminPassword == "" {
		return errors.New("folio: AdminPassword is required")
	}
	if c.SessionSecret == "" {
		return errors.New("folio: SessionSecret is required")
	}
	return nil
}

// LoadConfig reads a TOML config file into a SiteConfig. Environment
// variables applied afterwards with ConfigFromEnv win over file values.
func LoadConfig(path string) (SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg SiteConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigFromEnv overlays environment variables onto cfg. Unset variables
// leave the existing value untouched, so a TOML file can provide defaults.
func ConfigFromEnv(cfg SiteConfig) SiteConfig {
	overlay := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	overlay(&cfg.Name, "SITE_NAME")
	overlay(&cfg.URL, "SITE_URL")
	overlay(&cfg.Description, "SITE_DESCRIPTION")
	overlay(&cfg.Author, "SITE_AUTHOR")
	overlay(&cfg.Addr, "ADDR")
	overlay(&cfg.DatabasePath, "DATABASE_PATH")
	overlay(&cfg.GitHubClientID, "GITHUB_CLIENT_ID")
	overlay(&cfg.GitHubClientSecret, "GITHUB_CLIENT_SECRET")
	overlay(&cfg.AdminPassword, "ADMIN_PASSWORD")
	overlay(&cfg.SessionSecret, "SESSION_SECRET")
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		cfg.CookieSecure = v == "true" || v == "1"
	}
	return cfg
}

// Option configures additional App behavior.
type Option func(*App)

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithGitHub replaces the GitHub client, mainly to point it at a test server.
func WithGitHub(gh *GitHub) Option {
	return func(a *App) {
		a.GitHub = gh
	}
}

// WithCustomRoutes registers additional routes on the Echo instance before
// the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
