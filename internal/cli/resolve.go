package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flatmine/pkg/provenance"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var fromCatalog bool

	cmd := &cobra.Command{
		Use:   "resolve [archive-urls...]",
		Short: "Trace release archives back to their git repositories",
		Long: `Trace release archives back to their git repositories.

Archive URLs of known forges are rewritten directly. Other archives are
matched against the git repositories in the catalog by name, version tag
and README content.`,
		Example: `  flatmine resolve https://download.gnome.org/sources/libgsf/1.14/libgsf-1.14.43.tar.xz
  flatmine resolve --from-catalog`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !fromCatalog {
				return fmt.Errorf("no archive URLs given; pass URLs or --from-catalog")
			}
			return c.runResolve(cmd.Context(), args, fromCatalog)
		},
	}

	cmd.Flags().BoolVar(&fromCatalog, "from-catalog", false, "resolve every archive URL in the catalog")

	return cmd
}

func (c *CLI) runResolve(ctx context.Context, urls []string, fromCatalog bool) error {
	cfg, err := c.loadConfig()
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
	fetcher, err := c.newFetcher(cfg)
	if err != nil {
		return err
	}

	if fromCatalog {
		urls = append(urls, store.ArchiveURLs()...)
	}

	r := provenance.New(git, fetcher, store.GitURLs(), provenance.WithLogger(c.Logger))
	prog := newProgress(c.Logger)
	var summary provenance.Summary
	for _, u := range urls {
		res, err := r.Resolve(ctx, u)
		if err != nil {
			return err
		}
		summary.Add(res)
		printResult(res)
	}
	prog.done(fmt.Sprintf("Resolved %d of %d archives", summary.Resolved(), summary.Total))
	printSummary(summary)
	return nil
}

func printResult(res provenance.Result) {
	switch {
	case res.Exact():
		printSuccess("%s %s %s", res.ArchiveURL, iconArrow, StyleLink.Render(res.GitURL))
		printDetail("strategy: %s", res.Strategy)
	case res.Resolved():
		printSuccess("%s %s %s", res.ArchiveURL, iconArrow, StyleLink.Render(res.GitURL))
		printDetail("tag: %s", res.Tag)
	default:
		printWarning("%s: %s", res.ArchiveURL, res.Reason)
	}
}

func printSummary(s provenance.Summary) {
	printNewline()
	printKeyValue("Archives", fmt.Sprint(s.Total))
	printKeyValue("Exact", countShare(s, s.Exact))
	printKeyValue("Inferred", countShare(s, s.Inferred))
	printKeyValue("No version", countShare(s, s.MissingVersion))
	printKeyValue("No name", countShare(s, s.MissingName))
	printKeyValue("Unresolved", countShare(s, s.Unresolved))
}

func countShare(s provenance.Summary, n int) string {
	return fmt.Sprintf("%d %s", n, StyleDim.Render("("+s.Percent(n)+")"))
}
