package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/technify/pkg/errors"
	"github.com/matzehuels/technify/pkg/observability"
	"github.com/matzehuels/technify/pkg/proc"
)

// SegmentCommand returns the ffmpeg arguments that write one segment to
// out, and whether the segment is a stream copy.
type SegmentCommand func(seg Segment, out string) (args []string, copied bool)

// Assembler extracts segments to temporary files and joins them with
// ffmpeg's concat demuxer.
type Assembler struct {
	FFmpeg         string
	Runner         proc.Runner
	TempDir        string        // default os.TempDir()
	SegmentTimeout time.Duration // per segment, default DefaultSegmentTimeout
	ConcatTimeout  time.Duration // default DefaultEncodeTimeout
	Logger         *log.Logger
}

// Assemble writes every segment with build, lists them in a concat
// manifest and stream-copies the result to out. Segment files and the
// manifest are removed on every return path.
func (a *Assembler) Assemble(ctx context.Context, segments []Segment, build SegmentCommand, out string) error {
	if len(segments) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no segments to assemble")
	}
	dir := a.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create temp directory %s", dir)
	}

	run := uuid.NewString()
	ext := filepath.Ext(out)
	var temps []string
	defer func() {
		for _, p := range temps {
			_ = os.Remove(p)
		}
	}()

	paths := make([]string, len(segments))
	for j, seg := range segments {
		path, err := filepath.Abs(filepath.Join(dir, fmt.Sprintf("technify-%s-seg%03d%s", run, j, ext)))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve segment path")
		}
		temps = append(temps, path)
		paths[j] = path

		args, copied := build(seg, path)
		start := time.Now()
		_, err = a.runner().Run(ctx, proc.Command{
			Name:    a.ffmpeg(),
			Args:    args,
			Timeout: orDuration(a.SegmentTimeout, DefaultSegmentTimeout),
		})
		observability.Compose().OnSegment(ctx, j, copied, time.Since(start))
		if err != nil {
			return fmt.Errorf("segment %d %s: %w", j, seg, err)
		}
		a.logger().Debug("segment ready", "index", j, "span", seg.String(), "copied", copied)
	}

	manifest := filepath.Join(dir, fmt.Sprintf("technify-%s-concat.txt", run))
	temps = append(temps, manifest)
	if err := os.WriteFile(manifest, []byte(ConcatManifest(paths)), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write concat manifest")
	}

	_, err := a.runner().Run(ctx, proc.Command{
		Name:    a.ffmpeg(),
		Args:    ConcatArgs(manifest, out),
		Timeout: orDuration(a.ConcatTimeout, DefaultEncodeTimeout),
	})
	if err != nil {
		return fmt.Errorf("concat %d segments: %w", len(segments), err)
	}
	return nil
}

// ConcatManifest renders a concat demuxer file list. Paths should be
// absolute; single quotes are escaped.
func ConcatManifest(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(p, "'", `'\''`))
	}
	return b.String()
}

// ConcatArgs returns the ffmpeg arguments for a stream-copy concatenation.
func ConcatArgs(manifest, out string) []string {
	return []string{"-y", "-f", "concat", "-safe", "0", "-i", manifest, "-c", "copy", out}
}

func (a *Assembler) runner() proc.Runner {
	if a.Runner == nil {
		return proc.Exec
	}
	return a.Runner
}

func (a *Assembler) ffmpeg() string {
	if a.FFmpeg == "" {
		return "ffmpeg"
	}
	return a.FFmpeg
}

func (a *Assembler) logger() *log.Logger {
	if a.Logger == nil {
		return discard
	}
	return a.Logger
}

func orDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
