package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/technify/pkg/compose"
)

// Extensions offered when completing positional file arguments.
var (
	videoExts    = []string{"mp4", "mov", "mkv", "webm"}
	manifestExts = []string{"json"}
	configExts   = []string{"toml"}
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for bash, zsh or fish.

Completion knows the composition modes and offers only videos, manifests
and config files where those are expected.

  $ source <(technify completion bash)
  $ technify completion zsh > "${fpath[1]}/_technify"
  $ technify completion fish > ~/.config/fish/completions/technify.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			default:
				return cmd.Root().GenFishCompletion(w, true)
			}
		},
	}
}

// completeFiles completes positional argument i with files carrying one of
// exts[i]. Arguments past the end of exts get no completion.
func completeFiles(exts ...[]string) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= len(exts) {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return exts[len(args)], cobra.ShellCompDirectiveFilterFileExt
	}
}

func modeNames() []string {
	names := make([]string, len(compose.Modes))
	for i, m := range compose.Modes {
		names[i] = m.String()
	}
	return names
}

func registerModeFlag(cmd *cobra.Command, mode *string) {
	names := modeNames()
	cmd.Flags().StringVar(mode, "mode", "", "composition mode: "+strings.Join(names, ", ")+" (default from config, pip)")
	_ = cmd.RegisterFlagCompletionFunc("mode", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

func registerConfigFlag(root *cobra.Command, path *string) {
	root.PersistentFlags().StringVar(path, "config", "", "config file (default ./technify.toml)")
	_ = root.RegisterFlagCompletionFunc("config", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return configExts, cobra.ShellCompDirectiveFilterFileExt
	})
}
