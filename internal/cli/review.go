package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/technify/pkg/errors"
	"github.com/matzehuels/technify/pkg/io"
)

// reviewCommand creates the review command: an interactive picker that
// drops unwanted clips from a rendered manifest before compose.
func (c *CLI) reviewCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "review <manifest>",
		Short: "Choose which rendered clips are composited",
		Long: `Open an interactive list of the rendered clips of a manifest. Deselected
clips lose their clip path in the written manifest, so compose skips them.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles(manifestExts),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !stderrIsTerminal() {
				return errors.New(errors.ErrCodeUnsupported, "review needs an interactive terminal")
			}

			m, err := io.ImportManifest(args[0])
			if err != nil {
				return err
			}
			rendered := m.Rendered()
			if len(rendered) == 0 {
				printWarning("Manifest %s has no rendered clips", args[0])
				return nil
			}

			final, err := tea.NewProgram(NewReviewModel(rendered), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return fmt.Errorf("review: %w", err)
			}
			model := final.(ReviewModel)
			if !model.Confirmed {
				printInfo("Review cancelled, manifest unchanged")
				return nil
			}

			dropped := model.Apply()
			if output == "" {
				output = args[0]
			}
			if err := io.ExportManifest(m, output); err != nil {
				return err
			}
			printSuccess("Kept %d of %d clips", len(rendered)-dropped, len(rendered))
			printFile(output)
			printNextStep("Composite the kept clips", "technify compose <source> "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "reviewed manifest path (default: overwrite the input)")

	return cmd
}
