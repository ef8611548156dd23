// Package config loads flatmine settings.
//
// Settings are layered: built-in defaults, then the TOML config file, then
// a .env file in the working directory, then the process environment. A
// later layer overrides an earlier one field by field.
//
// # Config File
//
//	db_path = "/srv/flatmine-db"
//	assets_dir = "/var/tmp/flatmine"
//	sources = ["github-flathub-org", "gnome-gitlab-instance"]
//	deny_list = ["example/huge-repo"]
//	redis_url = "redis://localhost:6379/0"
//
//	[tokens]
//	"github.com" = "ghp_..."
//	"gitlab.gnome.org" = "glpat-..."
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/flatmine/pkg/catalog"
	"github.com/matzehuels/flatmine/pkg/errors"
	"github.com/matzehuels/flatmine/pkg/fetch"
	"github.com/matzehuels/flatmine/pkg/miner"
)

const appName = "flatmine"

// Environment variables read by [Load], besides the forge tokens listed in
// [miner.Sources].
const (
	EnvDBPath    = catalog.EnvDBPath
	EnvAssetsDir = "FLATMINE_ASSETS_DIR"
	EnvConfig    = "FLATMINE_CONFIG"
	EnvRedisURL  = "FLATMINE_REDIS_URL"
)

// Subdirectories of the assets directory.
const (
	ReposDir = "repos"
)

// Config holds the resolved settings.
type Config struct {
	// DBPath is the catalog root.
	DBPath string `toml:"db_path"`

	// AssetsDir holds checkouts and downloaded archives.
	AssetsDir string `toml:"assets_dir"`

	// Sources are the discovery source tags mined when none are given.
	Sources []string `toml:"sources"`

	// DenyList extends [miner.DefaultDenyList].
	DenyList []string `toml:"deny_list"`

	// RedisURL, when set, keeps discovery dumps in Redis instead of the
	// catalog's repositories directory.
	RedisURL string `toml:"redis_url"`

	// Tokens maps forge hosts to API tokens.
	Tokens map[string]string `toml:"tokens"`
}

// Default returns the built-in settings.
func Default() *Config {
	db, err := catalog.DefaultRoot()
	if err != nil {
		db = ".flatmine-db"
	}
	return &Config{
		DBPath:    db,
		AssetsDir: filepath.Join(os.TempDir(), appName),
		Tokens:    make(map[string]string),
	}
}

// DefaultPath returns the config file location following the XDG
// convention (~/.config/flatmine/config.toml).
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load resolves the settings. An empty path means $FLATMINE_CONFIG or
// [DefaultPath], either of which may be missing; an explicit path must
// exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.loadFile(path, explicit); err != nil {
			return nil, err
		}
	}

	_ = godotenv.Load()
	cfg.loadEnv()

	if cfg.DBPath == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "catalog path is empty")
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config file %s", path)
	}
	if c.Tokens == nil {
		c.Tokens = make(map[string]string)
	}
	return nil
}

func (c *Config) loadEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDBPath)); v != "" {
		c.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAssetsDir)); v != "" {
		c.AssetsDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisURL)); v != "" {
		c.RedisURL = v
	}
	for _, src := range miner.Sources {
		if v := strings.TrimSpace(os.Getenv(src.TokenEnv)); v != "" {
			c.Tokens[src.Host] = v
		}
	}
}

// Token returns the token configured for host, or "".
func (c *Config) Token(host string) string {
	return c.Tokens[host]
}

// ReposPath returns the directory holding repository checkouts.
func (c *Config) ReposPath() string {
	return filepath.Join(c.AssetsDir, ReposDir)
}

// EnsureAssets creates the assets directory layout.
func (c *Config) EnsureAssets() error {
	for _, dir := range []string{ReposDir, fetch.ArchivesDir, fetch.UncompressedArchivesDir} {
		if err := os.MkdirAll(filepath.Join(c.AssetsDir, dir), 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create assets directory %s", dir)
		}
	}
	return nil
}
