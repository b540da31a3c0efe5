// Package render turns diagram content into media files.
//
// # Overview
//
// This package holds the leaf adapters the render orchestrator drives:
//
//   - Still renderers: diagram-language source to PNG ([Mermaid], [D2],
//     [Graphviz])
//   - [Remotion]: structured slide payloads to an animated MP4
//   - [ClipConverter]: a still image to a fixed-duration MP4
//
// Mermaid, D2, Remotion and ffmpeg run as external processes through a
// [proc.Runner]; each call is synchronous and bounded by its own timeout.
// Graphviz runs in-process through go-graphviz.
//
// # Output Safety
//
// Every adapter renders into a uniquely named sibling of the requested
// output and renames it into place only after the tool exits zero and the
// file exists. A crashed or timed-out render therefore never leaves a
// partial file at the deterministic path the cache rule inspects.
//
// # Flowchart Fallback
//
// [ToDOT] converts a flowchart payload into Graphviz DOT, so a structured
// flowchart can still be rendered statically when the animation toolchain is
// missing.
//
//	dot := render.ToDOT(graph)
//	err := render.Graphviz{}.RenderStill(ctx, dot, "diagram_000_10.0s.png")
//
// [proc.Runner]: github.com/matzehuels/technify/pkg/proc.Runner
package render

import (
	"context"
	"time"

	"github.com/matzehuels/technify/pkg/artifact"
)

// Default timeouts for the adapters in this package.
const (
	DefaultStillTimeout   = 60 * time.Second
	DefaultInstallTimeout = 180 * time.Second
	DefaultAnimateTimeout = 360 * time.Second
	DefaultClipTimeout    = 300 * time.Second
)

// StillRenderer renders diagram-language source to a PNG at out.
type StillRenderer interface {
	RenderStill(ctx context.Context, source, out string) error
}

// Animator renders a structured payload to an MP4 of the given duration.
type Animator interface {
	// Supports reports whether a composition template exists for t.
	Supports(t artifact.SlideType) bool
	Animate(ctx context.Context, s artifact.Structured, duration float64, out string) error
}

// ClipMaker converts a still image into a clip of the given duration.
type ClipMaker interface {
	Convert(ctx context.Context, still, out string, duration float64) error
}

// Stills maps each dialect to its renderer.
type Stills map[artifact.Dialect]StillRenderer

// For returns the renderer for d, or nil.
func (s Stills) For(d artifact.Dialect) StillRenderer {
	if s == nil {
		return nil
	}
	return s[d]
}
