package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/technify/pkg/errors"
)

// runCommand creates the run command: render then compose.
func (c *CLI) runCommand() *cobra.Command {
	var (
		flags  renderFlags
		output string
		mode   string
	)

	cmd := &cobra.Command{
		Use:   "run <source> <manifest>",
		Short: "Render the diagrams of a manifest and composite them onto a video",
		Long: `Render the diagrams of a manifest and composite the resulting clips onto
the source video in one step. The composition mode is checked before any
rendering starts. The annotated manifest is kept in the work directory so a
later compose or run --use-cache can reuse it.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeFiles(videoExts, manifestExts),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, manifestPath := args[0], args[1]

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			m, err := resolveMode(cmd, cfg, mode)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if _, err := os.Stat(source); err != nil {
				return errors.Wrap(errors.ErrCodeFileNotFound, err, "input file not found: %s", source)
			}
			if output == "" {
				output = defaultOutput(source)
			}

			printKeyValue("Input", source)
			printKeyValue("Output", output)
			printKeyValue("Mode", m.String())
			printKeyValue("Work dir", flags.workDir)
			printNewline()

			rendered := filepath.Join(flags.workDir, "manifest.rendered.json")
			manifest, err := c.runRender(cmd.Context(), cfg, &flags, manifestPath, rendered)
			if err != nil {
				return err
			}
			if len(manifest.Rendered()) == 0 {
				printWarning("No diagrams rendered successfully")
				printNextStep("Check the available tools", "technify doctor")
				return nil
			}

			printNewline()
			return c.runCompose(cmd.Context(), cfg, source, manifest, output, m)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output video (default: <source>_technified.mp4)")
	registerModeFlag(cmd, &mode)

	return cmd
}
