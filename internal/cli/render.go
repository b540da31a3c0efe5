package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/technify/pkg/config"
	"github.com/matzehuels/technify/pkg/io"
	"github.com/matzehuels/technify/pkg/pipeline"
)

// renderFlags are the orchestrator flags shared by render and run.
type renderFlags struct {
	workDir  string
	jobs     int
	useCache bool
	verify   bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.workDir, "work-dir", defaultWorkDir, "directory for intermediate files; clips go to <work-dir>/diagrams")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "diagrams rendered in parallel (default from config, 4)")
	cmd.Flags().BoolVar(&f.useCache, "use-cache", false, "reuse clips from a previous run when still valid")
	cmd.Flags().BoolVar(&f.verify, "verify", false, "probe every clip and warn when its duration drifts")
}

// apply overrides cfg with the flags the user set explicitly.
func (f *renderFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("work-dir") {
		cfg.Render.OutputDir = filepath.Join(f.workDir, "diagrams")
	}
	if cmd.Flags().Changed("jobs") {
		cfg.Render.Concurrency = f.jobs
	}
	if cmd.Flags().Changed("use-cache") {
		cfg.Render.UseCache = f.useCache
	}
	if cmd.Flags().Changed("verify") {
		cfg.Render.VerifyDuration = f.verify
	}
}

func (f *renderFlags) options(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		OutputDir:      cfg.Render.OutputDir,
		Concurrency:    cfg.Render.Concurrency,
		UseCache:       cfg.Render.UseCache,
		VerifyDuration: cfg.Render.VerifyDuration,
	}
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags  renderFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "render <manifest>",
		Short: "Render every diagram of a manifest into a clip",
		Long: `Render every diagram of a manifest into a clip whose length matches its
scene window, then write the manifest annotated with the clip paths.

Diagrams with a structured payload are animated when a Remotion project is
configured and fall back to a static still otherwise. Failed diagrams are
reported and left without a clip; they never fail the command.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles(manifestExts),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if output == "" {
				output = args[0]
			}
			_, err = c.runRender(cmd.Context(), cfg, &flags, args[0], output)
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "annotated manifest path (default: overwrite the input)")

	return cmd
}

// runRender renders the manifest at input and writes the annotated
// manifest to output.
func (c *CLI) runRender(ctx context.Context, cfg *config.Config, flags *renderFlags, input, output string) (*io.Manifest, error) {
	logger := stageLogger(ctx, "render")

	m, err := io.ImportManifest(input)
	if err != nil {
		return nil, err
	}
	if len(m.Diagrams) == 0 {
		printWarning("Manifest %s has no diagrams", input)
		return m, nil
	}

	prober := c.newProber(ctx, cfg)
	runner := c.newRunner(cfg, prober)
	opts := flags.options(cfg)
	opts.Logger = logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %d diagrams...", len(m.Diagrams)))
	opts.Progress = func(done, total int, o pipeline.Outcome) {
		spinner.SetMessage(fmt.Sprintf("Rendering diagrams... %d/%d", done, total))
	}

	prog := newProgress(logger)
	spinner.Start()
	report, err := runner.Render(ctx, m.Diagrams, opts)
	spinner.Stop()
	if report == nil {
		return nil, err
	}

	printBlock(renderReportTable(m.Diagrams, report))
	prog.done(fmt.Sprintf("Rendered %d/%d diagrams", report.Rendered(), len(m.Diagrams)))

	if exportErr := io.ExportManifest(m, output); exportErr != nil {
		return nil, exportErr
	}
	printFile(output)
	if err != nil {
		return m, err
	}
	if hits := report.CacheHits(); hits > 0 {
		printDetail("%d clips reused from cache", hits)
	}
	return m, nil
}
