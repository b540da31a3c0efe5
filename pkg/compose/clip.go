package compose

import (
	"math"
	"os"
	"sort"

	"github.com/matzehuels/technify/pkg/artifact"
)

// Clip is a rendered clip placed on the source timeline.
type Clip struct {
	artifact.Window
	Path string
}

// ClipsFrom collects the diagrams whose clip file exists and returns them
// sorted by start time. Diagrams with equal starts keep their input order.
func ClipsFrom(diagrams []*artifact.Diagram) []Clip {
	var clips []Clip
	for _, d := range diagrams {
		if d == nil || !d.Rendered() {
			continue
		}
		if _, err := os.Stat(d.ClipPath); err != nil {
			continue
		}
		clips = append(clips, Clip{Window: d.Window(), Path: d.ClipPath})
	}
	sortClips(clips)
	return clips
}

func sortClips(clips []Clip) {
	sort.SliceStable(clips, func(i, j int) bool { return clips[i].Start < clips[j].Start })
}

// Clamp limits every clip to [0, duration) and drops clips that end up
// empty. The input is not modified.
func Clamp(clips []Clip, duration float64) []Clip {
	out := make([]Clip, 0, len(clips))
	for _, c := range clips {
		start := math.Max(c.Start, 0)
		end := math.Min(c.End, duration)
		if end <= start {
			continue
		}
		c.Start, c.End = start, end
		out = append(out, c)
	}
	sortClips(out)
	return out
}
