package pipeline

import (
	"fmt"

	"github.com/matzehuels/technify/pkg/artifact"
)

// Tier is a rendering strategy.
type Tier int

const (
	// TierNone means the diagram has nothing renderable.
	TierNone Tier = iota
	// TierStatic renders a still image and converts it into a clip.
	TierStatic
	// TierAnimated renders the structured payload with an animation template.
	TierAnimated
)

func (t Tier) String() string {
	switch t {
	case TierStatic:
		return "static"
	case TierAnimated:
		return "animated"
	default:
		return "none"
	}
}

// SelectTier picks the rendering tier for d. supports reports whether an
// animation template exists for a slide type; nil means none does.
//
// The animated tier is chosen for a non-empty structured payload with a
// template. Otherwise the static tier is chosen when renderable source in
// a supported dialect is available. A diagram whose window is empty or
// inverted is never renderable.
func SelectTier(d *artifact.Diagram, supports func(artifact.SlideType) bool) Tier {
	if !d.Window().Valid() {
		return TierNone
	}
	if s, ok := d.StructuredContent(); ok && !s.Empty() && supports != nil && supports(s.Type) {
		return TierAnimated
	}
	if _, ok := d.StaticSource(); ok {
		return TierStatic
	}
	return TierNone
}

// AcceptCache reports whether an existing clip may be reused for the
// desired tier. stillExists reports whether a companion still image sits
// next to the clip.
func AcceptCache(desired Tier, stillExists bool) bool {
	switch desired {
	case TierStatic:
		return true
	case TierAnimated:
		return !stillExists
	default:
		return false
	}
}

// Stem returns the deterministic file stem for the diagram at index with
// effective start time start, e.g. "diagram_003_42.5s".
func Stem(index int, start float64) string {
	return fmt.Sprintf("diagram_%03d_%.1fs", index, start)
}
