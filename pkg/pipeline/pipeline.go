// Package pipeline provides the render orchestrator for technify.
//
// The orchestrator turns a batch of [artifact.Diagram] records into
// duration-matched clips. For every diagram it decides a rendering tier,
// applies the cache-validity rule, runs the matching adapters from
// [render] and records the outcome. A failing diagram never fails the
// batch: it is left without a clip path and reported in its [Outcome].
//
// # Tiers
//
//  1. Animated: a non-empty structured payload whose slide type has an
//     animation template
//  2. Static: renderable diagram-language source, either the content
//     itself or the explicit fallback of a structured payload
//  3. None: nothing to render; no tool is invoked
//
// The tier is recomputed on every run and never cached. See [SelectTier].
//
// # Cache Rule
//
// With caching enabled, an existing clip at the deterministic path is
// reused only if it has the shape the current tier would produce. Static
// clips are always reused. Animated clips are reused only when no companion
// still image sits next to them, because a still is evidence the clip came
// from the static tier. See [AcceptCache].
//
// # Usage
//
//	runner := pipeline.NewRunner(stills, animator, clips, logger)
//	report, err := runner.Render(ctx, diagrams, pipeline.Options{
//	    OutputDir:   "work/diagrams",
//	    Concurrency: 4,
//	    UseCache:    true,
//	})
//	if err != nil {
//	    // lock contention, invalid options or a recovered panic
//	}
//	fmt.Println(report.Rendered(), "clips")
//
// [artifact.Diagram]: github.com/matzehuels/technify/pkg/artifact.Diagram
// [render]: github.com/matzehuels/technify/pkg/render
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/technify/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultConcurrency is the worker pool width.
	DefaultConcurrency = 4

	// DefaultOutputDir is where clips are written when no directory is given.
	DefaultOutputDir = "work/diagrams"

	// DefaultTolerance is the allowed difference in seconds between a
	// clip's duration and its window.
	DefaultTolerance = 0.2

	// LockFile is created in the output directory for the duration of a batch.
	LockFile = ".technify.lock"
)

// File extensions of the two per-diagram outputs.
const (
	StillExt = ".png"
	ClipExt  = ".mp4"
)

// =============================================================================
// Options - Orchestrator Configuration
// =============================================================================

// Options configures one render batch.
type Options struct {
	// OutputDir receives one still and/or clip per diagram.
	OutputDir string

	// Concurrency is the worker pool width. Zero means DefaultConcurrency.
	Concurrency int

	// UseCache enables reuse of clips that already exist at their
	// deterministic path.
	UseCache bool

	// VerifyDuration probes every produced clip and records drift beyond
	// Tolerance. It requires Runner.Prober.
	VerifyDuration bool

	// Tolerance in seconds. Zero means DefaultTolerance.
	Tolerance float64

	// Runtime options
	Logger *log.Logger

	// Progress is called once per finished diagram. Calls are serialized.
	Progress func(done, total int, o Outcome)

	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if err := errors.ValidateConcurrency(o.Concurrency); err != nil {
		return err
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Outcome is the result of rendering one diagram.
type Outcome struct {
	Index    int
	Stem     string
	Tier     Tier
	Cached   bool          // clip reused from a previous run
	Degraded bool          // animated tier fell back to static content
	Err      error         // nil on success
	Elapsed  time.Duration // wall time spent on this diagram
	Drift    float64       // measured clip duration minus window, when verified
}

// OK reports whether a clip was produced or reused.
func (o Outcome) OK() bool { return o.Err == nil }

// Report aggregates the outcomes of one batch, indexed like the input.
type Report struct {
	Outcomes []Outcome
	Elapsed  time.Duration
}

// Rendered returns the number of diagrams that ended with a clip.
func (r *Report) Rendered() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed returns the outcomes without a clip.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// CacheHits returns the number of clips reused from a previous run.
func (r *Report) CacheHits() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Cached {
			n++
		}
	}
	return n
}
