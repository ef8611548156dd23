package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flatmine/pkg/errors"
	"github.com/matzehuels/flatmine/pkg/manifest"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "inspect <manifest>",
		Short: "Parse a Flatpak manifest and summarize it",
		Long: `Parse a Flatpak manifest and summarize it.

The manifest is validated the same way the miner validates it. With --dump
the parsed manifest is written back out in its original format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(args[0], dump)
		},
	}

	cmd.Flags().BoolVar(&dump, "dump", false, "print the re-serialized manifest")

	return cmd
}

func (c *CLI) runInspect(path string, dump bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "read manifest")
	}
	if !manifest.MatchesFilename(path) {
		c.Logger.Warn("file name does not follow the manifest naming convention; the miner would skip it", "path", path)
	}
	m, err := manifest.Parse(path, content)
	if err != nil {
		return err
	}

	if dump {
		out, err := m.Dump()
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}

	printManifest(m)
	return nil
}

func printManifest(m *manifest.Manifest) {
	fmt.Println(StyleTitle.Render(m.Identifier()))
	printKeyValue("Format", m.Format.String())
	printKeyValue("Runtime", m.Runtime+"//"+m.RuntimeVersion)
	printKeyValue("SDK", m.Sdk)
	if m.IsExtension() {
		printKeyValue("Kind", "extension")
	}
	printKeyValue("Modules", fmt.Sprint(len(m.ModuleDescriptions())))
	printKeyValue("Depth", fmt.Sprint(m.MaxDepth()))
	printKeyValue("URLs", fmt.Sprint(len(m.AllURLs())))
	if u, ok := m.MainModuleURL(); ok {
		printKeyValue("Main URL", StyleLink.Render(u))
	}

	kinds := manifest.TallySourceKinds(m.Modules)
	if len(kinds) == 0 {
		return
	}
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	slices.Sort(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%s %d", k, kinds[k])
	}
	printKeyValue("Sources", strings.Join(parts, StyleDim.Render(" · ")))
}
