// Package compose builds the final video from a source video and the clips
// produced by the render orchestrator.
//
// # Modes
//
// Three composition modes operate over the same sorted clip list:
//
//   - [ModeOverlay] ("pip"): one re-encode of the whole source with a chain
//     of overlay stages, one per clip, each gated to its window
//   - [ModeSideBySide] ("side_by_side"): the same chain, but each stage
//     swaps in a two-panel frame with the source on the left and the clip on
//     the right
//   - [ModeReplace] ("replace"): an event-driven splice that cuts the source
//     into segments, re-encodes only the ones a clip covers and concatenates
//     the results with a stream copy
//
// Filter graphs are built by pure functions ([OverlayGraph],
// [SideBySideGraph]) and the segment timeline by [Segments], so all three
// can be tested without running ffmpeg.
//
// # Output
//
// Every mode writes to a hidden temporary sibling of the output path and
// renames it into place on success. A failed composition leaves nothing at
// the output path. With no clips the source is copied byte for byte.
package compose

import "time"

// Default timeouts for ffmpeg invocations.
const (
	DefaultSegmentTimeout = 600 * time.Second
	DefaultEncodeTimeout  = 7200 * time.Second
)
