package compose

import (
	"fmt"
	"strconv"
	"strings"
)

// Graph is an ffmpeg filter graph together with the inputs it reads and
// the label of its final video stream. Input 0 is always the source.
type Graph struct {
	Inputs []string
	Filter string
	Output string
}

// Layout holds the frame geometry and styling the graphs are built for.
type Layout struct {
	Width    int     // source frame width
	Height   int     // source frame height
	Scale    float64 // overlay width as a fraction of Width
	Margin   int     // overlay distance from the bottom-right corner, zero means DefaultMargin
	Backing  string  // right-panel colour in side-by-side
	FPS      string  // source frame rate for re-encoded segments
	PadColor string  // letterbox colour for replaced segments
}

// Default layout values.
const (
	DefaultScale   = 0.4
	DefaultMargin  = 20
	DefaultBacking = "white"
)

func (l Layout) withDefaults() Layout {
	if l.Scale <= 0 || l.Scale > 1 {
		l.Scale = DefaultScale
	}
	if l.Margin <= 0 {
		l.Margin = DefaultMargin
	}
	if l.Backing == "" {
		l.Backing = DefaultBacking
	}
	if l.FPS == "" {
		l.FPS = "30"
	}
	if l.PadColor == "" {
		l.PadColor = "black"
	}
	return l
}

// overlayWidth is the even pixel width of an overlaid clip.
func (l Layout) overlayWidth() int {
	return even(int(float64(l.Width) * l.Scale))
}

// half is the even pixel width of one side-by-side panel.
func (l Layout) half() int {
	return even(l.Width / 2)
}

func even(n int) int {
	if n < 2 {
		return 2
	}
	return n - n%2
}

// ts formats a timestamp for ffmpeg expressions.
func ts(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

func gate(c Clip) string {
	return fmt.Sprintf("enable='gte(t,%s)*lt(t,%s)'", ts(c.Start), ts(c.End))
}

func stageLabel(i, n int) string {
	if i == n-1 {
		return "[vout]"
	}
	return fmt.Sprintf("[v%d]", i)
}

// OverlayGraph builds the picture-in-picture chain. Clip i is input i+1,
// shifted so its first frame lands at its window start, scaled to
// Layout.Scale of the frame width and drawn in the bottom-right corner
// while start <= t < end. Later clips draw on top of earlier ones.
func OverlayGraph(source string, clips []Clip, layout Layout) Graph {
	l := layout.withDefaults()
	g := Graph{Inputs: []string{source}, Output: "[vout]"}
	if len(clips) == 0 {
		g.Filter = "[0:v]null[vout]"
		return g
	}

	parts := make([]string, 0, 2*len(clips))
	prev := "[0:v]"
	for i, c := range clips {
		g.Inputs = append(g.Inputs, c.Path)
		pip := fmt.Sprintf("[pip%d]", i)
		parts = append(parts,
			fmt.Sprintf("[%d:v]setpts=PTS-STARTPTS+%s/TB,scale=%d:-2%s", i+1, ts(c.Start), l.overlayWidth(), pip),
			fmt.Sprintf("%s%soverlay=W-w-%d:H-h-%d:%s:eof_action=pass%s", prev, pip, l.Margin, l.Margin, gate(c), stageLabel(i, len(clips))),
		)
		prev = fmt.Sprintf("[v%d]", i)
	}
	g.Filter = strings.Join(parts, ";")
	return g
}

// SideBySideGraph builds the two-panel chain. The source is split once
// into a base stream and one left-panel canvas per clip. Each stage
// composites its canvas with the clip fitted into the right half on the
// backing colour, then overlays the composite on the running chain while
// start <= t < end. Outside every window the base shows through at full
// width. The output keeps the source frame size.
func SideBySideGraph(source string, clips []Clip, layout Layout) Graph {
	l := layout.withDefaults()
	g := Graph{Inputs: []string{source}, Output: "[vout]"}
	if len(clips) == 0 {
		g.Filter = "[0:v]null[vout]"
		return g
	}

	half := l.half()
	labels := []string{"[base]"}
	for i := range clips {
		labels = append(labels, fmt.Sprintf("[left%d]", i))
	}
	parts := []string{fmt.Sprintf("[0:v]split=%d%s", len(labels), strings.Join(labels, ""))}

	prev := "[base]"
	for i, c := range clips {
		g.Inputs = append(g.Inputs, c.Path)
		parts = append(parts,
			fmt.Sprintf("[left%d]%s[lp%d]", i, leftPanel(l, half), i),
			fmt.Sprintf("[%d:v]setpts=PTS-STARTPTS+%s/TB,%s[rp%d]", i+1, ts(c.Start), rightPanel(l, half), i),
			fmt.Sprintf("[lp%d][rp%d]overlay=%d:0:eof_action=pass[sbs%d]", i, i, half, i),
			fmt.Sprintf("%s[sbs%d]overlay=0:0:%s%s", prev, i, gate(c), stageLabel(i, len(clips))),
		)
		prev = fmt.Sprintf("[v%d]", i)
	}
	g.Filter = strings.Join(parts, ";")
	return g
}

// leftPanel fits the source into the left half of a full-size black frame.
func leftPanel(l Layout, half int) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black,pad=%d:%d:0:0:color=black",
		half, l.Height, half, l.Height, l.Width, l.Height)
}

// rightPanel fits a clip into one half-width panel on the backing colour.
func rightPanel(l Layout, half int) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=%s",
		half, l.Height, half, l.Height, l.Backing)
}

// SegmentPanelFilter is the two-panel composite for one stitched segment
// where input 0 is the source span and input 1 the clip span.
func SegmentPanelFilter(layout Layout) string {
	l := layout.withDefaults()
	half := l.half()
	return fmt.Sprintf("[0:v]%s[left];[1:v]%s[right];[left][right]overlay=%d:0:eof_action=pass[vout]",
		leftPanel(l, half), rightPanel(l, half), half)
}

// ReplaceFilter fits a clip span into the source frame at the source frame
// rate, so replaced segments concatenate with stream-copied ones.
func ReplaceFilter(layout Layout) string {
	l := layout.withDefaults()
	return fmt.Sprintf("[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=%s,fps=%s,format=yuv420p[vout]",
		l.Width, l.Height, l.Width, l.Height, l.PadColor, l.FPS)
}

// EncodeArgs returns the ffmpeg arguments that apply g to its inputs in a
// single pass and write out. Only video is filtered; source audio, when
// present, is stream-copied.
func EncodeArgs(g Graph, out string) []string {
	return encodeArgs(g, out, "copy")
}

func encodeArgs(g Graph, out, audioCodec string) []string {
	args := []string{"-y"}
	for _, in := range g.Inputs {
		args = append(args, "-i", in)
	}
	return append(args,
		"-filter_complex", g.Filter,
		"-map", g.Output,
		"-map", "0:a?",
		"-c:v", "libx264",
		"-c:a", audioCodec,
		"-preset", "fast",
		out,
	)
}
