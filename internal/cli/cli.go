// Package cli implements the flatmine command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flatmine/internal/config"
	"github.com/matzehuels/flatmine/pkg/buildinfo"
	"github.com/matzehuels/flatmine/pkg/cache"
	"github.com/matzehuels/flatmine/pkg/catalog"
	"github.com/matzehuels/flatmine/pkg/fetch"
	"github.com/matzehuels/flatmine/pkg/vcs"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "flatmine"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by the --config flag.
	configPath string
}

// New creates a new CLI instance with a default logger and routes the
// pipeline's observability events to it.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{Logger: newLogger(w, level)}
	registerHooks(c.Logger)
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "flatmine catalogs Flatpak-packaged open-source projects",
		Long:         `flatmine crawls code-hosting services for Flatpak manifests, folds what it finds into a deduplicated project catalog and traces release archives back to their git repositories.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/flatmine/config.toml)")

	root.AddCommand(c.mineCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Collaborator Factories
// =============================================================================

// loadConfig resolves the settings for the current invocation.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// openStore opens the catalog named by cfg.
func (c *CLI) openStore(cfg *config.Config) (*catalog.DirStore, error) {
	return catalog.Open(cfg.DBPath, c.Logger)
}

// openDumps returns the discovery dump store: Redis when a URL is
// configured, otherwise the catalog's repositories directory.
func (c *CLI) openDumps(ctx context.Context, cfg *config.Config, store *catalog.DirStore) (cache.Store, error) {
	if cfg.RedisURL != "" {
		dumps, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return dumps, nil
	}
	return store.Dumps(), nil
}

// newGitClient returns a go-git client checking out under the assets dir.
func (c *CLI) newGitClient(cfg *config.Config) (*vcs.GitClient, error) {
	if err := cfg.EnsureAssets(); err != nil {
		return nil, err
	}
	return vcs.NewGitClient(cfg.ReposPath(), cfg.Tokens, c.Logger), nil
}

// newFetcher returns an archive fetcher storing under the assets dir.
func (c *CLI) newFetcher(cfg *config.Config) (*fetch.HTTPFetcher, error) {
	if err := cfg.EnsureAssets(); err != nil {
		return nil, err
	}
	return fetch.NewHTTPFetcher(cfg.AssetsDir, c.Logger), nil
}
