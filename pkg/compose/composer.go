package compose

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/technify/pkg/errors"
	"github.com/matzehuels/technify/pkg/media/ffprobe"
	"github.com/matzehuels/technify/pkg/observability"
	"github.com/matzehuels/technify/pkg/proc"
)

var discard = log.NewWithOptions(io.Discard, log.Options{})

// SourceProber reports the metadata of the source video.
type SourceProber interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// Composer produces the final video. It is stateless between calls.
type Composer struct {
	FFmpeg   string      // default "ffmpeg"
	Runner   proc.Runner // default proc.Exec
	Prober   SourceProber
	Layout   Layout // frame size and rate are taken from the source
	Strategy Strategy
	TempDir  string // segment files and manifests, default os.TempDir()

	SegmentTimeout time.Duration
	EncodeTimeout  time.Duration

	Logger *log.Logger
}

// NewComposer creates a composer that probes sources with prober. A nil
// logger discards output.
func NewComposer(prober SourceProber, logger *log.Logger) *Composer {
	if logger == nil {
		logger = discard
	}
	return &Composer{Prober: prober, Logger: logger}
}

// Compose writes source with clips composited in the given mode to out
// and returns out. Clips need not be sorted; windows are clamped to the
// source duration. With no clips, or none left after clamping, the source
// is copied unchanged.
//
// Any failure aborts the whole composition and nothing is left at out.
// Errors from ffmpeg keep its stderr, see [proc.StderrOf].
func (c *Composer) Compose(ctx context.Context, source string, clips []Clip, out string, mode Mode) (_ string, err error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return "", err
	}
	if err := errors.ValidateOutputPath(out); err != nil {
		return "", err
	}
	if _, err := os.Stat(source); err != nil {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "source video %s", source)
	}

	start := time.Now()
	observability.Compose().OnComposeStart(ctx, mode.String(), len(clips))
	defer func() {
		observability.Compose().OnComposeComplete(ctx, mode.String(), time.Since(start), err)
	}()

	logger := c.logger().With("mode", mode)
	if len(clips) == 0 {
		logger.Info("no clips to compose, copying source")
		return c.passthrough(source, out)
	}

	if c.Prober == nil {
		return "", errors.New(errors.ErrCodeInternal, "composer has no source prober")
	}
	info, err := c.Prober.Probe(ctx, source)
	if err != nil {
		return "", fmt.Errorf("probe source: %w", err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return "", errors.New(errors.ErrCodeInvalidInput, "source %s has no frame size", source)
	}

	clips = Clamp(clips, info.Duration)
	if len(clips) == 0 {
		logger.Warn("every clip lies outside the source, copying source", "duration", info.Duration)
		return c.passthrough(source, out)
	}

	layout := c.Layout
	layout.Width, layout.Height = info.Width, info.Height
	layout.FPS = info.FrameRateString()

	logger.Info("composing", "clips", len(clips), "source", info.String())
	err = writeAtomic(out, func(tmp string) error {
		switch mode {
		case ModeOverlay:
			return c.encode(ctx, OverlayGraph(source, clips, layout), tmp)
		case ModeSideBySide:
			if c.Strategy == StrategyStitch {
				return c.assemble(ctx, Segments(clips, info.Duration), stitchCommand(source, layout), tmp)
			}
			return c.encode(ctx, SideBySideGraph(source, clips, layout), tmp)
		default:
			return c.assemble(ctx, Segments(clips, info.Duration), replaceCommand(source, layout), tmp)
		}
	})
	if err != nil {
		return "", err
	}
	logger.Info("composed", "output", out, "duration", time.Since(start))
	return out, nil
}

func (c *Composer) passthrough(source, out string) (string, error) {
	if err := copyAtomic(source, out); err != nil {
		return "", err
	}
	return out, nil
}

// encode runs one full re-encode of the source video through g. The audio
// is copied; when the output container rejects the source codec the pass is
// repeated with AAC audio.
func (c *Composer) encode(ctx context.Context, g Graph, out string) error {
	run := func(audio string) error {
		_, err := c.runner().Run(ctx, proc.Command{
			Name:    c.ffmpeg(),
			Args:    encodeArgs(g, out, audio),
			Timeout: orDuration(c.EncodeTimeout, DefaultEncodeTimeout),
		})
		return err
	}
	err := run("copy")
	if err != nil && audioCopyRejected(err) {
		c.logger().Warn("audio codec not supported by container, re-encoding audio", "output", out)
		err = run("aac")
	}
	if err != nil {
		return fmt.Errorf("encode %d stages: %w", len(g.Inputs)-1, err)
	}
	return nil
}

// audioCopyRejected reports whether ffmpeg failed because the copied audio
// stream cannot be muxed into the output container.
func audioCopyRejected(err error) bool {
	if !errors.Is(err, errors.ErrCodeToolFailed) {
		return false
	}
	stderr := proc.StderrOf(err)
	return strings.Contains(stderr, "not currently supported in container") ||
		strings.Contains(stderr, "Could not find tag for codec")
}

func (c *Composer) assemble(ctx context.Context, segments []Segment, build SegmentCommand, out string) error {
	a := Assembler{
		FFmpeg:         c.FFmpeg,
		Runner:         c.Runner,
		TempDir:        c.TempDir,
		SegmentTimeout: c.SegmentTimeout,
		ConcatTimeout:  c.EncodeTimeout,
		Logger:         c.logger(),
	}
	return a.Assemble(ctx, segments, build, out)
}

// copyArgs stream-copies one source segment.
func copyArgs(source string, seg Segment, out string) []string {
	return []string{
		"-y",
		"-ss", ts(seg.Start), "-t", ts(seg.Duration()),
		"-i", source,
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		out,
	}
}

// replaceCommand re-encodes clip segments at the source frame size and
// rate with the source audio of the same span. Source segments are copied.
func replaceCommand(source string, layout Layout) SegmentCommand {
	filter := ReplaceFilter(layout)
	return func(seg Segment, out string) ([]string, bool) {
		if seg.IsSource() {
			return copyArgs(source, seg, out), true
		}
		return []string{
			"-y",
			"-ss", ts(seg.Offset()), "-t", ts(seg.Duration()), "-i", seg.Clip.Path,
			"-ss", ts(seg.Start), "-t", ts(seg.Duration()), "-i", source,
			"-filter_complex", filter,
			"-map", "[vout]",
			"-map", "1:a?",
			"-c:v", "libx264",
			"-preset", "fast",
			"-c:a", "aac",
			out,
		}, false
	}
}

// stitchCommand composites clip segments as two panels. Source segments
// are copied.
func stitchCommand(source string, layout Layout) SegmentCommand {
	filter := SegmentPanelFilter(layout)
	return func(seg Segment, out string) ([]string, bool) {
		if seg.IsSource() {
			return copyArgs(source, seg, out), true
		}
		return []string{
			"-y",
			"-ss", ts(seg.Start), "-t", ts(seg.Duration()), "-i", source,
			"-ss", ts(seg.Offset()), "-t", ts(seg.Duration()), "-i", seg.Clip.Path,
			"-filter_complex", filter,
			"-map", "[vout]",
			"-map", "0:a?",
			"-c:v", "libx264",
			"-preset", "ultrafast",
			"-c:a", "aac",
			out,
		}, false
	}
}

// writeAtomic runs produce against a hidden sibling of out and renames the
// result into place. The sibling is removed on every failure path.
func writeAtomic(out string, produce func(tmp string) error) error {
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory")
	}
	tmp := tempSibling(out)
	defer os.Remove(tmp)

	if err := produce(tmp); err != nil {
		return err
	}
	if info, err := os.Stat(tmp); err != nil || info.Size() == 0 {
		return errors.New(errors.ErrCodeToolFailed, "ffmpeg exited 0 but produced no output file")
	}
	return rename(tmp, out)
}

// copyAtomic copies src to out byte for byte through a hidden sibling.
func copyAtomic(src, out string) error {
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory")
	}
	tmp := tempSibling(out)
	defer os.Remove(tmp)

	if err := copyFile(src, tmp); err != nil {
		return err
	}
	return rename(tmp, out)
}

func tempSibling(out string) string {
	dir, base := filepath.Split(out)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+"-"+uuid.NewString()+ext)
}

func rename(tmp, out string) error {
	if err := os.Rename(tmp, out); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "move %s into place", filepath.Base(out))
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", src)
	}
	defer in.Close()

	outFile, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dst)
	}
	if _, err := io.Copy(outFile, in); err != nil {
		outFile.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "copy %s", src)
	}
	if err := outFile.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "copy %s", src)
	}
	return nil
}

func (c *Composer) runner() proc.Runner {
	if c.Runner == nil {
		return proc.Exec
	}
	return c.Runner
}

func (c *Composer) ffmpeg() string {
	if c.FFmpeg == "" {
		return "ffmpeg"
	}
	return c.FFmpeg
}

func (c *Composer) logger() *log.Logger {
	if c.Logger == nil {
		return discard
	}
	return c.Logger
}
