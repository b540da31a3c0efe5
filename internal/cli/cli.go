// Package cli implements the technify command-line interface.
//
// technify renders the diagrams of a manifest into duration-matched clips
// and composites those clips onto the source video. The CLI is built using
// cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - render: Render every diagram of a manifest and write the annotated manifest
//   - compose: Composite the rendered clips of a manifest onto a video
//   - run: render then compose in one step
//   - review: Pick which rendered diagrams make it into the video
//   - doctor: Report which external tools are available
//   - cache: Manage the media probe cache
//
// # Configuration
//
// Settings are read from technify.toml (see --config), overridden by
// TECHNIFY_* environment variables and finally by flags.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/technify/pkg/artifact"
	"github.com/matzehuels/technify/pkg/cache"
	"github.com/matzehuels/technify/pkg/compose"
	"github.com/matzehuels/technify/pkg/config"
	"github.com/matzehuels/technify/pkg/media/ffprobe"
	"github.com/matzehuels/technify/pkg/pipeline"
	"github.com/matzehuels/technify/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "technify"

	// defaultWorkDir holds intermediate files of the run command.
	defaultWorkDir = "work"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Component Factories
// =============================================================================

// newCache opens the probe cache named by the configuration.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	dir := cfg.Cache.Dir
	if dir == "" && cfg.Cache.Backend == cache.BackendFile {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.Open(ctx, cache.Options{
		Backend:  cfg.Cache.Backend,
		Dir:      dir,
		RedisURL: cfg.Cache.RedisURL,
		Prefix:   appName + ":",
	})
}

// newProber creates an ffprobe prober backed by the probe cache. A cache
// that cannot be opened is logged and replaced by no cache.
func (c *CLI) newProber(ctx context.Context, cfg *config.Config) *ffprobe.Prober {
	store, err := c.newCache(ctx, cfg)
	if err != nil {
		c.Logger.Warn("probe cache unavailable", "backend", cfg.Cache.Backend, "error", err)
		store = cache.NewNullCache()
	}
	return &ffprobe.Prober{
		Binary:  cfg.Tools.FFprobe,
		Timeout: cfg.Timeouts.Probe.Duration,
		Cache:   store,
		Keyer:   cache.NewScopedKeyer(cache.NewDefaultKeyer(), "ffprobe"),
		TTL:     cfg.Cache.TTL.Duration,
		Logger:  c.Logger,
	}
}

// newRunner creates a render orchestrator with every adapter the
// configuration names. The animated tier is enabled only when a Remotion
// project directory is configured.
func (c *CLI) newRunner(cfg *config.Config, prober pipeline.DurationProber) *pipeline.Runner {
	stills := render.Stills{
		artifact.DialectMermaid: &render.Mermaid{Binary: cfg.Tools.Mmdc, Timeout: cfg.Timeouts.Still.Duration},
		artifact.DialectD2:      &render.D2{Binary: cfg.Tools.D2, Timeout: cfg.Timeouts.Still.Duration},
		artifact.DialectDOT:     render.Graphviz{},
	}
	clips := render.ClipConverter{
		FFmpeg:  cfg.Tools.FFmpeg,
		Timeout: cfg.Timeouts.Clip.Duration,
		Framing: cfg.Framing,
	}

	var animator render.Animator
	if cfg.Tools.RemotionDir != "" {
		animator = &render.Remotion{
			Dir:            cfg.Tools.RemotionDir,
			NPM:            cfg.Tools.NPM,
			Concurrency:    cfg.Tools.RemotionConcurrency,
			InstallTimeout: cfg.Timeouts.Install.Duration,
			RenderTimeout:  cfg.Timeouts.Animate.Duration,
			Logger:         c.Logger,
		}
	}

	runner := pipeline.NewRunner(stills, animator, clips, c.Logger)
	runner.Prober = prober
	return runner
}

// newComposer creates a composer from the configuration.
func (c *CLI) newComposer(cfg *config.Config, prober compose.SourceProber) *compose.Composer {
	strategy, _ := compose.ParseStrategy(cfg.Compose.SideBySideStrategy)
	composer := compose.NewComposer(prober, c.Logger)
	composer.FFmpeg = cfg.Tools.FFmpeg
	composer.Layout = cfg.Layout()
	composer.Strategy = strategy
	composer.TempDir = cfg.Compose.TempDir
	composer.SegmentTimeout = cfg.Timeouts.Segment.Duration
	composer.EncodeTimeout = cfg.Timeouts.Encode.Duration
	return composer
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/technify/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
