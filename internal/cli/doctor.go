package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/technify/pkg/deps"
	"github.com/matzehuels/technify/pkg/errors"
)

// doctorCommand creates the doctor command that reports tool availability.
func (c *CLI) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the external tools technify uses are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg.Tools))
			statuses = append(statuses, deps.CheckRemotionProject(cfg.Tools.RemotionDir))
			printBlock(renderDoctorTable(statuses))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return errors.New(errors.ErrCodeToolUnavailable, "%d required tools missing", len(missing))
			}
			printSuccess("All required tools found")
			return nil
		},
	}
}
