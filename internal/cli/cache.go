package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flatmine/internal/config"
	"github.com/matzehuels/flatmine/pkg/cache"
	"github.com/matzehuels/flatmine/pkg/catalog"
)

// cacheCommand creates the discovery dump management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage saved discovery dumps",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheListCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [keys...]",
		Short: "Delete discovery dumps so the next run lists the forges again",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDumps(cmd.Context(), func(dumps cache.Store) error {
				return clearDumps(cmd.Context(), dumps, args)
			})
		},
	}
}

// cacheListCommand creates the "cache list" subcommand.
func (c *CLI) cacheListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved discovery dumps",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDumps(cmd.Context(), func(dumps cache.Store) error {
				return listDumps(cmd.Context(), dumps)
			})
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where discovery dumps are kept",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDumps(cmd.Context(), func(dumps cache.Store) error {
				fmt.Println(dumps.Location())
				return nil
			})
		},
	}
}

// withDumps opens the configured dump store for the duration of fn.
func (c *CLI) withDumps(ctx context.Context, fn func(cache.Store) error) error {
	return c.withStore(func(cfg *config.Config, store *catalog.DirStore) error {
		dumps, err := c.openDumps(ctx, cfg, store)
		if err != nil {
			return err
		}
		defer dumps.Close()
		return fn(dumps)
	})
}

// clearDumps deletes the named dumps, or all of them when keys is empty.
func clearDumps(ctx context.Context, dumps cache.Store, keys []string) error {
	if len(keys) == 0 {
		all, err := dumps.Keys(ctx)
		if err != nil {
			return err
		}
		keys = all
	}
	if len(keys) == 0 {
		printInfo("No discovery dumps")
		return nil
	}

	for _, key := range keys {
		if err := dumps.Delete(ctx, key); err != nil {
			return err
		}
	}
	printSuccess("Cleared %d discovery dumps", len(keys))
	printDetail("Location: %s", dumps.Location())
	return nil
}

func listDumps(ctx context.Context, dumps cache.Store) error {
	keys, err := dumps.Keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		printInfo("No discovery dumps")
		return nil
	}
	for _, key := range keys {
		urls, _, err := dumps.Get(ctx, key)
		if err != nil {
			return err
		}
		printKeyValue(key, fmt.Sprintf("%d repositories", len(urls)))
	}
	return nil
}
