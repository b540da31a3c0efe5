package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/technify/pkg/compose"
	"github.com/matzehuels/technify/pkg/config"
	"github.com/matzehuels/technify/pkg/io"
)

// composeCommand creates the compose command.
func (c *CLI) composeCommand() *cobra.Command {
	var output, mode string

	cmd := &cobra.Command{
		Use:   "compose <source> <manifest>",
		Short: "Composite the rendered clips of a manifest onto a video",
		Long: `Composite the rendered clips of a manifest onto the source video.

Modes:
  pip           clip in the bottom-right corner during its window (default)
  side_by_side  source on the left, clip on the right during its window
  replace       clip instead of the source during its window`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeFiles(videoExts, manifestExts),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			m, err := resolveMode(cmd, cfg, mode)
			if err != nil {
				return err
			}
			manifest, err := io.ImportManifest(args[1])
			if err != nil {
				return err
			}
			if output == "" {
				output = defaultOutput(args[0])
			}
			return c.runCompose(cmd.Context(), cfg, args[0], manifest, output, m)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output video (default: <source>_technified.mp4)")
	registerModeFlag(cmd, &mode)

	return cmd
}

// resolveMode returns the composition mode from --mode or the config. An
// unknown mode is an error before any work starts.
func resolveMode(cmd *cobra.Command, cfg *config.Config, flag string) (compose.Mode, error) {
	if cmd.Flags().Changed("mode") {
		cfg.Compose.Mode = flag
	}
	return compose.ParseMode(cfg.Compose.Mode)
}

// defaultOutput returns <dir>/<stem>_technified.mp4 for source.
func defaultOutput(source string) string {
	ext := filepath.Ext(source)
	stem := strings.TrimSuffix(filepath.Base(source), ext)
	return filepath.Join(filepath.Dir(source), stem+"_technified.mp4")
}

func (c *CLI) runCompose(ctx context.Context, cfg *config.Config, source string, m *io.Manifest, output string, mode compose.Mode) error {
	logger := stageLogger(ctx, "compose")
	clips := compose.ClipsFrom(m.Diagrams)
	if len(clips) == 0 {
		printWarning("No rendered clips, the output is a copy of the source")
	}

	composer := c.newComposer(cfg, c.newProber(ctx, cfg))
	composer.Logger = logger

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Composing %d clips (%s)...", len(clips), mode))
	spinner.Start()
	out, err := composer.Compose(ctx, source, clips, output, mode)
	if err != nil {
		spinner.StopWithError("Composition failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Composed %d clips", len(clips)))
	printSuccess("Video written")
	printFile(out)
	return nil
}
