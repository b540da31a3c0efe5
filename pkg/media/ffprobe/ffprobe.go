package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/technify/pkg/errors"
	"github.com/matzehuels/technify/pkg/proc"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Duration     string `json:"duration"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspect runs ffprobe against path through runner and decodes the JSON
// response. An empty binary means "ffprobe".
func Inspect(ctx context.Context, runner proc.Runner, binary, path string, timeout time.Duration) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New(errors.ErrCodeInvalidPath, "ffprobe inspect: empty path")
	}

	res, err := runner.Run(ctx, proc.Command{
		Name:    binary,
		Args:    []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path},
		Timeout: timeout,
	})
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := json.Unmarshal(res.Stdout, &result); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeToolFailed, err, "ffprobe parse %s", path)
	}
	return result, nil
}

// VideoStream returns the first video stream.
func (r Result) VideoStream() (Stream, bool) {
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "video") {
			return s, true
		}
	}
	return Stream{}, false
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, falling back
// to the video stream duration. It returns 0 when neither is reported.
func (r Result) DurationSeconds() float64 {
	if d := parseFloat(r.Format.Duration); d > 0 {
		return d
	}
	if v, ok := r.VideoStream(); ok {
		if d := parseFloat(v.Duration); d > 0 {
			return d
		}
	}
	return 0
}

// Info is the summary of a media file the composer works from.
type Info struct {
	Duration  float64 `json:"duration"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FrameRate float64 `json:"frame_rate"`
	Rate      string  `json:"rate,omitempty"` // exact rational as reported, e.g. "30000/1001"
	HasAudio  bool    `json:"has_audio"`
}

// Info summarises the result. It fails when there is no video stream or no
// usable duration.
func (r Result) Info() (Info, error) {
	v, ok := r.VideoStream()
	if !ok {
		return Info{}, errors.New(errors.ErrCodeInvalidInput, "no video stream in %s", r.Format.Filename)
	}
	info := Info{
		Duration:  r.DurationSeconds(),
		Width:     v.Width,
		Height:    v.Height,
		HasAudio: r.AudioStreamCount() > 0,
	}
	for _, rate := range []string{v.RFrameRate, v.AvgFrameRate} {
		if fps := parseRate(rate); fps > 0 {
			info.FrameRate, info.Rate = fps, strings.TrimSpace(rate)
			break
		}
	}
	if info.Duration <= 0 {
		return Info{}, errors.New(errors.ErrCodeInvalidInput, "no duration reported for %s", r.Format.Filename)
	}
	return info, nil
}

// FrameRateString formats the frame rate for ffmpeg's fps filter. The exact
// rational is preferred so re-encoded segments match stream-copied ones.
func (i Info) FrameRateString() string {
	if i.Rate != "" {
		return i.Rate
	}
	if i.FrameRate <= 0 {
		return "30"
	}
	return strconv.FormatFloat(i.FrameRate, 'f', -1, 64)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil && !math.IsNaN(parsed) {
		return parsed
	}
	return 0
}

// parseRate parses ffprobe rationals such as "30000/1001".
func parseRate(value string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(value), "/")
	if !ok {
		return parseFloat(value)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return math.Round(n/d*1000) / 1000
}

func (i Info) String() string {
	return fmt.Sprintf("%.2fs %dx%d @%gfps audio=%t", i.Duration, i.Width, i.Height, i.FrameRate, i.HasAudio)
}
