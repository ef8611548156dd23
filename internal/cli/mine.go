package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flatmine/internal/config"
	"github.com/matzehuels/flatmine/pkg/cache"
	"github.com/matzehuels/flatmine/pkg/catalog"
	"github.com/matzehuels/flatmine/pkg/miner"
)

// mineCommand creates the mine command.
func (c *CLI) mineCommand() *cobra.Command {
	var all, noCache bool

	cmd := &cobra.Command{
		Use:   "mine [sources...]",
		Short: "Crawl discovery sources into the catalog",
		Long: `Crawl discovery sources into the catalog.

Each source lists repositories on a forge. Listings are saved as discovery
dumps and reused by later runs; --no-cache lists the forges again without
touching the dumps. Repositories referenced by the manifests found are
mined in follow-up rounds until nothing new turns up.

Without arguments the sources from the config file are mined.

Sources:
  ` + strings.Join(miner.SourceTags(), "\n  "),
		ValidArgsFunction: completeSources,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMine(cmd.Context(), args, all, noCache)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "mine every known source")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore saved discovery dumps")

	return cmd
}

func (c *CLI) runMine(ctx context.Context, args []string, all, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	sources, err := selectSources(args, all, cfg)
	if err != nil {
		return err
	}

	store, err := c.openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	git, err := c.newGitClient(cfg)
	if err != nil {
		return err
	}

	dumps, err := c.dumpCache(ctx, cfg, store, noCache)
	if err != nil {
		return err
	}
	defer dumps.Close()

	var targets []miner.Target
	for _, src := range sources {
		found, err := miner.Discover(ctx, src, cfg.Token(src.Host), dumps, c.Logger)
		if err != nil {
			return err
		}
		targets = append(targets, found...)
	}
	if len(targets) == 0 {
		printWarning("No repositories to mine")
		return nil
	}

	denyList := append(slices.Clone(miner.DefaultDenyList), cfg.DenyList...)
	m := miner.New(store, git, miner.WithLogger(c.Logger), miner.WithDenyList(denyList))

	prog := newProgress(c.Logger)
	stats, err := m.Run(ctx, targets)
	prog.done(fmt.Sprintf("Mined %d repositories", stats.Mined))
	printMineStats(stats)
	return err
}

// selectSources maps source tags to sources. --all selects every source;
// no tags fall back to the configured ones.
func selectSources(tags []string, all bool, cfg *config.Config) ([]miner.Source, error) {
	if all {
		return slices.Clone(miner.Sources), nil
	}
	if len(tags) == 0 {
		tags = cfg.Sources
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("no sources given; pass source names or --all")
	}

	var out []miner.Source
	for _, tag := range tags {
		src, ok := miner.LookupSource(tag)
		if !ok {
			return nil, fmt.Errorf("unknown source %q (known: %s)", tag, strings.Join(miner.SourceTags(), ", "))
		}
		out = append(out, src)
	}
	return out, nil
}

// dumpCache returns the configured dump store, or a cache that never hits
// when noCache is set.
func (c *CLI) dumpCache(ctx context.Context, cfg *config.Config, store *catalog.DirStore, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return c.openDumps(ctx, cfg, store)
}

func printMineStats(s miner.Stats) {
	printNewline()
	printKeyValue("Rounds", fmt.Sprint(s.Rounds))
	printKeyValue("Mined", fmt.Sprint(s.Mined))
	printKeyValue("Skipped", fmt.Sprint(s.Skipped))
	printKeyValue("Failed", fmt.Sprint(s.Failed))
	printKeyValue("Manifests", fmt.Sprint(s.Manifests))
	printKeyValue("Modules", fmt.Sprint(s.Modules))
	printKeyValue("Projects", fmt.Sprint(s.Projects))
}
