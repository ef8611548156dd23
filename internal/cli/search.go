package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flatmine/internal/config"
	"github.com/matzehuels/flatmine/pkg/catalog"
	"github.com/matzehuels/flatmine/pkg/project"
)

// searchCommand creates the search command with its subcommands.
func (c *CLI) searchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the catalog",
	}

	cmd.AddCommand(c.searchProjectsCommand())
	cmd.AddCommand(c.searchModulesCommand())

	return cmd
}

// searchProjectsCommand creates the "search projects" subcommand.
func (c *CLI) searchProjectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "projects <term>",
		Short: "Find projects by id or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(func(_ *config.Config, store *catalog.DirStore) error {
				found := store.SearchProjects(args[0])
				if len(found) == 0 {
					printInfo("No projects match %q", args[0])
					return nil
				}
				printTable([]string{"Project", "Name", "Sources", "Build systems"}, projectRows(found))
				printInfo("%d projects", len(found))
				return nil
			})
		},
	}
}

// searchModulesCommand creates the "search modules" subcommand.
func (c *CLI) searchModulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modules <term>",
		Short: "Find modules by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(func(_ *config.Config, store *catalog.DirStore) error {
				found := store.SearchModules(args[0])
				if len(found) == 0 {
					printInfo("No modules match %q", args[0])
					return nil
				}
				printTable([]string{"Module", "Hash", "Build system", "URL"}, moduleRows(found))
				printInfo("%d modules", len(found))
				return nil
			})
		},
	}
}

// withStore opens the configured catalog for the duration of fn.
func (c *CLI) withStore(fn func(*config.Config, *catalog.DirStore) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := c.openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func projectRows(projects []*project.Project) [][]string {
	rows := make([][]string, len(projects))
	for i, p := range projects {
		rows[i] = []string{p.ID, orDash(p.Name), orDash(strings.Join(p.Sources, ", ")), orDash(strings.Join(p.BuildSystems, ", "))}
	}
	return rows
}

func moduleRows(records []*catalog.ModuleRecord) [][]string {
	rows := make([][]string, len(records))
	for i, rec := range records {
		hash := rec.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		url, _ := rec.Module.MainURL()
		rows[i] = []string{rec.Module.Name, hash, orDash(rec.Module.BuildSystem()), orDash(url)}
	}
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
