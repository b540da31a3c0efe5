package cli

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/technify/pkg/buildinfo"
	"github.com/matzehuels/technify/pkg/errors"
	"github.com/matzehuels/technify/pkg/proc"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "technify turns diagrams into clips and composites them onto a video",
		Long:         `technify renders the diagrams attached to the scenes of a technical video into duration-matched clips, then overlays them on, places them beside, or splices them into the original video along its timeline.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	registerConfigFlag(root, &c.configPath)

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.composeCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.reviewCommand())
	root.AddCommand(c.doctorCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// ErrorMessage formats err for the terminal: the user-facing message and,
// for failed external tools, their captured diagnostic output.
func ErrorMessage(err error) string {
	if stderrors.Is(err, context.Canceled) {
		return "interrupted"
	}
	msg := errors.UserMessage(err)
	if code := errors.GetCode(err); code != "" {
		msg = strings.ToLower(string(code)) + ": " + msg
	}
	if stderr := strings.TrimSpace(proc.StderrOf(err)); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}
