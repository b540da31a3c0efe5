package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/technify/pkg/artifact"
	"github.com/matzehuels/technify/pkg/errors"
	"github.com/matzehuels/technify/pkg/observability"
	"github.com/matzehuels/technify/pkg/proc"
	"github.com/matzehuels/technify/pkg/render"
)

// DurationProber measures media duration in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Runner renders batches of diagrams.
//
// The Runner holds no per-batch state. Multiple goroutines can use the
// same Runner for different output directories.
type Runner struct {
	Stills   render.Stills
	Animator render.Animator // nil disables the animated tier
	Clips    render.ClipMaker
	Prober   DurationProber // used when Options.VerifyDuration is set
	Logger   *log.Logger
}

// NewRunner creates a runner from the given adapters. A nil logger is
// replaced with log.Default().
func NewRunner(stills render.Stills, animator render.Animator, clips render.ClipMaker, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Stills: stills, Animator: animator, Clips: clips, Logger: logger}
}

// Render renders every diagram and annotates it in place: ClipPath (and
// StillPath for the static tier) are set on success and left empty on
// failure. Per-diagram failures are reported in the returned Report and
// never returned as an error.
//
// Render returns an error only for invalid options, a second batch holding
// the output directory lock, or panics recovered from workers. In the
// last case the Report is still complete.
func (r *Runner) Render(ctx context.Context, diagrams []*artifact.Diagram, opts Options) (*Report, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory %s", opts.OutputDir)
	}

	lock := flock.New(filepath.Join(opts.OutputDir, LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "lock %s", opts.OutputDir)
	}
	if !locked {
		return nil, errors.New(errors.ErrCodeInvalidInput, "another render is already using %s", opts.OutputDir)
	}
	defer lock.Unlock()

	start := time.Now()
	report := &Report{Outcomes: make([]Outcome, len(diagrams))}

	var (
		mu     sync.Mutex
		done   int
		panics []error
	)
	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for i, d := range diagrams {
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					err := errors.New(errors.ErrCodeInternal, "diagram %d: panic: %v\n%s", i, p, debug.Stack())
					if d != nil {
						d.ResetResults()
					}
					mu.Lock()
					panics = append(panics, err)
					report.Outcomes[i] = Outcome{Index: i, Err: err}
					mu.Unlock()
				}
			}()

			o := r.renderOne(ctx, i, d, opts)
			report.Outcomes[i] = o

			if opts.Progress != nil {
				mu.Lock()
				done++
				opts.Progress(done, len(diagrams), o)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	report.Elapsed = time.Since(start)

	opts.Logger.Info("rendered diagrams",
		"rendered", report.Rendered(),
		"total", len(diagrams),
		"cached", report.CacheHits(),
		"duration", report.Elapsed)

	if len(panics) > 0 {
		return report, stderrors.Join(panics...)
	}
	return report, nil
}

func (r *Runner) supports(t artifact.SlideType) bool {
	return r.Animator != nil && r.Animator.Supports(t)
}

// renderOne renders a single diagram. It must not touch any state shared
// with other workers besides the logger.
func (r *Runner) renderOne(ctx context.Context, i int, d *artifact.Diagram, opts Options) Outcome {
	if d == nil {
		return Outcome{Index: i, Err: errors.New(errors.ErrCodeInvalidInput, "diagram %d is nil", i)}
	}
	start := time.Now()
	stem := Stem(i, d.Start())
	still := filepath.Join(opts.OutputDir, stem+StillExt)
	clip := filepath.Join(opts.OutputDir, stem+ClipExt)
	logger := opts.Logger.With("diagram", stem)

	d.ResetResults()
	o := Outcome{Index: i, Stem: stem, Tier: SelectTier(d, r.supports)}
	observability.Render().OnRenderStart(ctx, stem, o.Tier.String())

	defer func() {
		o.Elapsed = time.Since(start)
		observability.Render().OnRenderComplete(ctx, stem, o.Tier.String(), o.Cached, o.Elapsed, o.Err)
	}()

	if o.Tier == TierNone {
		o.Err = errors.New(errors.ErrCodeInvalidInput, "nothing renderable")
		logger.Warn("skipping diagram", "reason", "no renderable content")
		return o
	}

	if opts.UseCache && exists(clip) && AcceptCache(o.Tier, exists(still)) {
		d.ClipPath = clip
		if exists(still) {
			d.StillPath = still
		}
		o.Cached = true
		logger.Debug("reusing cached clip", "tier", o.Tier)
		return o
	}

	duration := d.Duration()
	switch o.Tier {
	case TierAnimated:
		s, _ := d.StructuredContent()
		err := r.Animator.Animate(ctx, s, duration, clip)
		if err == nil {
			// An animated clip never has a companion still.
			_ = os.Remove(still)
			d.ClipPath = clip
			logger.Info("animated", "tier", o.Tier, "duration", duration)
			break
		}
		src, ok := degradedSource(d, s, err)
		if !ok {
			o.Err = err
			logger.Error("animation failed", "error", err)
			return o
		}
		logger.Warn("animation unavailable, rendering static fallback", "error", err, "dialect", src.Dialect)
		o.Degraded = true
		if o.Err = r.renderStatic(ctx, src, still, clip, duration, d); o.Err != nil {
			logger.Error("static fallback failed", "error", o.Err)
			return o
		}
	case TierStatic:
		src, _ := d.StaticSource()
		if o.Err = r.renderStatic(ctx, src, still, clip, duration, d); o.Err != nil {
			logger.Error("render failed", "dialect", src.Dialect, "error", o.Err)
			return o
		}
		logger.Info("rendered", "tier", o.Tier, "dialect", src.Dialect, "duration", duration)
	}

	if opts.VerifyDuration && r.Prober != nil {
		o.Drift = r.verify(ctx, d, opts.Tolerance, logger)
	}
	return o
}

// degradedSource picks static content for an animated diagram whose
// animation failed. A missing toolchain degrades to the explicit fallback
// or, for flowcharts, to DOT derived from the graph. A failed or timed-out
// animation degrades only to an explicit fallback.
func degradedSource(d *artifact.Diagram, s artifact.Structured, err error) (artifact.TextSource, bool) {
	if src, ok := d.StaticSource(); ok && (proc.IsUnavailable(err) || proc.IsFailure(err)) {
		return src, true
	}
	if proc.IsUnavailable(err) && s.Type == artifact.SlideFlowchart && s.Graph != nil {
		return artifact.TextSource{Dialect: artifact.DialectDOT, Source: render.ToDOT(s.Graph)}, true
	}
	return artifact.TextSource{}, false
}

func (r *Runner) renderStatic(ctx context.Context, src artifact.TextSource, still, clip string, duration float64, d *artifact.Diagram) error {
	renderer := r.Stills.For(src.Dialect)
	if renderer == nil {
		return errors.New(errors.ErrCodeToolUnavailable, "no still renderer for dialect %q", src.Dialect)
	}
	if r.Clips == nil {
		return errors.New(errors.ErrCodeToolUnavailable, "no clip converter configured")
	}
	if err := renderer.RenderStill(ctx, src.Source, still); err != nil {
		return err
	}
	d.StillPath = still
	if err := r.Clips.Convert(ctx, still, clip, duration); err != nil {
		return err
	}
	d.ClipPath = clip
	return nil
}

func (r *Runner) verify(ctx context.Context, d *artifact.Diagram, tolerance float64, logger *log.Logger) float64 {
	got, err := r.Prober.Duration(ctx, d.ClipPath)
	if err != nil {
		logger.Warn("could not verify clip duration", "error", err)
		return 0
	}
	drift := got - d.Duration()
	if math.Abs(drift) > tolerance {
		logger.Warn("clip duration drift", "want", d.Duration(), "got", got, "drift", drift)
		return drift
	}
	return 0
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
