package cli

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flatmine/pkg/miner"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for flatmine.

Bash:
  $ source <(flatmine completion bash)

Zsh:
  $ flatmine completion zsh > "${fpath[1]}/_flatmine"

Fish:
  $ flatmine completion fish > ~/.config/fish/completions/flatmine.fish

PowerShell:
  PS> flatmine completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

// completeSources completes discovery source tags not already given.
func completeSources(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, tag := range miner.SourceTags() {
		if strings.HasPrefix(tag, toComplete) && !slices.Contains(args, tag) {
			out = append(out, tag)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
