// Package config loads technify's project configuration.
//
// Settings come from three layers, later layers winning:
//
//  1. technify.toml, found via an explicit path, then ./technify.toml, then
//     $XDG_CONFIG_HOME/technify/config.toml
//  2. Environment variables (TECHNIFY_*), after loading a .env file from the
//     working directory when one exists
//  3. Command-line flags, applied by the caller
//
// A missing file is not an error; every setting has a default.
//
// # Example
//
//	[render]
//	concurrency = 8
//	use_cache = true
//
//	[compose]
//	mode = "side_by_side"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
package config

import (
	"fmt"
	"time"

	"github.com/matzehuels/technify/pkg/cache"
	"github.com/matzehuels/technify/pkg/compose"
	"github.com/matzehuels/technify/pkg/errors"
	"github.com/matzehuels/technify/pkg/media/ffprobe"
	"github.com/matzehuels/technify/pkg/pipeline"
	"github.com/matzehuels/technify/pkg/render"
)

// FileName is the project configuration file looked up in the working directory.
const FileName = "technify.toml"

// Config is the full configuration.
type Config struct {
	Render   Render         `toml:"render"`
	Compose  Compose        `toml:"compose"`
	Framing  render.Framing `toml:"framing"`
	Tools    Tools          `toml:"tools"`
	Timeouts Timeouts       `toml:"timeouts"`
	Cache    Cache          `toml:"cache"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Render configures the render orchestrator.
type Render struct {
	Concurrency    int    `toml:"concurrency"`
	UseCache       bool   `toml:"use_cache"`
	OutputDir      string `toml:"output_dir"`
	VerifyDuration bool   `toml:"verify_duration"`
}

// Compose configures the timeline composer.
type Compose struct {
	Mode               string  `toml:"mode"`
	SideBySideStrategy string  `toml:"side_by_side_strategy"`
	PIPScale           float64 `toml:"pip_scale"`
	PIPMargin          int     `toml:"pip_margin"`
	BackingColor       string  `toml:"backing_color"`
	TempDir            string  `toml:"temp_dir"`
}

// Tools names the external binaries. Bare names are resolved on PATH.
type Tools struct {
	FFmpeg              string `toml:"ffmpeg"`
	FFprobe             string `toml:"ffprobe"`
	Mmdc                string `toml:"mmdc"`
	D2                  string `toml:"d2"`
	NPM                 string `toml:"npm"`
	RemotionDir         string `toml:"remotion_dir"`
	RemotionConcurrency int    `toml:"remotion_concurrency"`
}

// Timeouts bounds each kind of external process.
type Timeouts struct {
	Probe   Duration `toml:"probe"`
	Still   Duration `toml:"still"`
	Install Duration `toml:"install"`
	Animate Duration `toml:"animate"`
	Clip    Duration `toml:"clip"`
	Segment Duration `toml:"segment"`
	Encode  Duration `toml:"encode"`
}

// Cache configures the probe cache.
type Cache struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
}

// Duration is a time.Duration written as a string such as "90s" or "2h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func dur(d time.Duration) Duration { return Duration{d} }

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Render: Render{
			Concurrency: pipeline.DefaultConcurrency,
			OutputDir:   pipeline.DefaultOutputDir,
		},
		Compose: Compose{
			Mode:               string(compose.ModeOverlay),
			SideBySideStrategy: string(compose.StrategyFilter),
			PIPScale:           compose.DefaultScale,
			PIPMargin:          compose.DefaultMargin,
			BackingColor:       compose.DefaultBacking,
		},
		Framing: render.DefaultFraming(),
		Tools: Tools{
			FFmpeg:              "ffmpeg",
			FFprobe:             "ffprobe",
			Mmdc:                "mmdc",
			D2:                  "d2",
			NPM:                 "npm",
			RemotionDir:         "remotion",
			RemotionConcurrency: 4,
		},
		Timeouts: Timeouts{
			Probe:   dur(ffprobe.DefaultTimeout),
			Still:   dur(render.DefaultStillTimeout),
			Install: dur(render.DefaultInstallTimeout),
			Animate: dur(render.DefaultAnimateTimeout),
			Clip:    dur(render.DefaultClipTimeout),
			Segment: dur(compose.DefaultSegmentTimeout),
			Encode:  dur(compose.DefaultEncodeTimeout),
		},
		Cache: Cache{
			Backend: cache.BackendFile,
			TTL:     dur(720 * time.Hour),
		},
	}
}

// Validate checks the configuration after all layers are applied.
func (c *Config) Validate() error {
	if _, err := compose.ParseMode(c.Compose.Mode); err != nil {
		return err
	}
	if _, err := compose.ParseStrategy(c.Compose.SideBySideStrategy); err != nil {
		return err
	}
	if err := errors.ValidateConcurrency(c.Render.Concurrency); err != nil {
		return err
	}
	if c.Tools.RemotionConcurrency < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "tools.remotion_concurrency must be at least 1 (got %d)", c.Tools.RemotionConcurrency)
	}
	if c.Compose.PIPScale <= 0 || c.Compose.PIPScale > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "compose.pip_scale must be in (0, 1] (got %v)", c.Compose.PIPScale)
	}
	if c.Framing.Width <= 0 || c.Framing.Height <= 0 || c.Framing.FPS <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "framing must be positive (got %dx%d @%d fps)",
			c.Framing.Width, c.Framing.Height, c.Framing.FPS)
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendRedis, cache.BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidInput, "cache.redis_url is required for the redis backend")
	}
	return nil
}

// Mode returns the parsed composition mode. Call Validate first.
func (c *Config) Mode() compose.Mode {
	m, _ := compose.ParseMode(c.Compose.Mode)
	return m
}

// Layout returns the composer layout. Frame size and rate are filled in
// from the source at composition time.
func (c *Config) Layout() compose.Layout {
	return compose.Layout{
		Scale:    c.Compose.PIPScale,
		Margin:   c.Compose.PIPMargin,
		Backing:  c.Compose.BackingColor,
		PadColor: c.Framing.PadColor,
	}
}
