package render

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/matzehuels/technify/pkg/errors"
	"github.com/matzehuels/technify/pkg/proc"
)

// Framing is the canonical frame a still is letterboxed into.
type Framing struct {
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	FPS      int    `toml:"fps"`
	PadColor string `toml:"pad_color"`
}

// DefaultFraming returns 1920x1080 at 5 fps on white.
func DefaultFraming() Framing {
	return Framing{Width: 1920, Height: 1080, FPS: 5, PadColor: "white"}
}

// Filter returns the scale-to-fit and pad filter for this framing.
func (f Framing) Filter() string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=%s",
		f.Width, f.Height, f.Width, f.Height, f.PadColor)
}

func (f Framing) withDefaults() Framing {
	d := DefaultFraming()
	if f.Width <= 0 {
		f.Width = d.Width
	}
	if f.Height <= 0 {
		f.Height = d.Height
	}
	if f.FPS <= 0 {
		f.FPS = d.FPS
	}
	if f.PadColor == "" {
		f.PadColor = d.PadColor
	}
	return f
}

// ClipConverter turns a still image into a constant clip with ffmpeg.
type ClipConverter struct {
	FFmpeg  string        // default "ffmpeg"
	Runner  proc.Runner   // default proc.Exec
	Timeout time.Duration // default DefaultClipTimeout
	Framing Framing       // zero fields take DefaultFraming values
}

// Convert implements ClipMaker.
func (c ClipConverter) Convert(ctx context.Context, still, out string, duration float64) error {
	if duration <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "clip duration must be positive (got %.3f)", duration)
	}
	args := c.Args(still, "", duration)
	return writeAtomic("ffmpeg", out, func(tmp string) error {
		_, err := runner(c.Runner).Run(ctx, proc.Command{
			Name:    orDefault(c.FFmpeg, "ffmpeg"),
			Args:    append(args, tmp),
			Timeout: orDefaultDuration(c.Timeout, DefaultClipTimeout),
		})
		return err
	})
}

// Args returns the ffmpeg arguments for converting still. When out is
// empty the output path is left off so the caller can append its own.
func (c ClipConverter) Args(still, out string, duration float64) []string {
	f := c.Framing.withDefaults()
	args := []string{
		"-y",
		"-loop", "1",
		"-framerate", "1",
		"-i", still,
		"-c:v", "libx264",
		"-t", strconv.FormatFloat(duration, 'f', 3, 64),
		"-pix_fmt", "yuv420p",
		"-preset", "ultrafast",
		"-tune", "stillimage",
		"-r", strconv.Itoa(f.FPS),
		"-vf", f.Filter(),
	}
	if out != "" {
		args = append(args, out)
	}
	return args
}
