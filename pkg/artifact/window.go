package artifact

import (
	"fmt"
	"math"

	"github.com/matzehuels/technify/pkg/errors"
)

// Window is a half-open time span [Start, End) measured in seconds from the
// beginning of the source video.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start. It is negative for inverted windows.
func (w Window) Duration() float64 { return w.End - w.Start }

// Valid reports whether the window is finite, non-negative and non-empty.
func (w Window) Valid() bool {
	return errors.ValidateWindow(w.Start, w.End) == nil
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t float64) bool {
	return t >= w.Start && t < w.End
}

// Clamp restricts the window to [0, limit). The result may be empty when the
// window lies entirely outside that range.
func (w Window) Clamp(limit float64) Window {
	return Window{
		Start: math.Max(0, math.Min(w.Start, limit)),
		End:   math.Max(0, math.Min(w.End, limit)),
	}
}

// String formats the window as "10.0s-20.0s".
func (w Window) String() string {
	return fmt.Sprintf("%.1fs-%.1fs", w.Start, w.End)
}
