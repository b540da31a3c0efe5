package compose

import (
	"strings"

	"github.com/matzehuels/technify/pkg/errors"
)

// Mode selects the composition algorithm.
type Mode string

// Composition modes.
const (
	ModeOverlay    Mode = "pip"
	ModeSideBySide Mode = "side_by_side"
	ModeReplace    Mode = "replace"
)

// Modes lists every legal mode in display order.
var Modes = []Mode{ModeOverlay, ModeSideBySide, ModeReplace}

// ParseMode validates a mode string. Anything other than the three legal
// values is an INVALID_MODE error, so callers can reject a bad mode before
// rendering starts.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.TrimSpace(s))
	for _, legal := range Modes {
		if m == legal {
			return m, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidMode, "unknown composition mode %q (want pip, side_by_side or replace)", s)
}

func (m Mode) String() string { return string(m) }

// Strategy selects how side-by-side is produced.
type Strategy string

const (
	// StrategyFilter builds one filter graph and encodes the source once.
	StrategyFilter Strategy = "filter"
	// StrategyStitch composites only the clip segments and stream-copies
	// the rest.
	StrategyStitch Strategy = "stitch"
)

// ParseStrategy validates a side-by-side strategy. Empty means StrategyFilter.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.TrimSpace(s)) {
	case "", StrategyFilter:
		return StrategyFilter, nil
	case StrategyStitch:
		return StrategyStitch, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown side-by-side strategy %q (want filter or stitch)", s)
}
