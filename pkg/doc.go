// Package pkg provides the core libraries for technify.
//
// # Overview
//
// technify turns the diagrams attached to the scenes of a technical video
// into clips whose length matches their scene, then composites those clips
// onto the source video. The pkg directory is organized into three areas:
//
//  1. Domain types: [artifact] and the manifest codec in [io]
//  2. Stages: [render] adapters, the [pipeline] orchestrator and [compose]
//  3. Infrastructure: [proc], [media/ffprobe], [cache], [config], [deps],
//     [errors] and [observability]
//
// # Architecture
//
// The typical data flow through technify:
//
//	manifest.json (scenes + diagrams)
//	         ↓
//	    [io] package (decode, scene references)
//	         ↓
//	    [pipeline] package (tier choice, bounded parallel render)
//	         ↓               ↘
//	    [render] stills + clips   [render] Remotion animation
//	         ↓
//	    annotated manifest (clip paths)
//	         ↓
//	    [compose] package (pip, side_by_side, replace)
//	         ↓
//	    <source>_technified.mp4
//
// # Quick Start
//
//	m, _ := io.ImportManifest("manifest.json")
//
//	stills := render.Stills{
//	    artifact.DialectMermaid: &render.Mermaid{},
//	    artifact.DialectD2:      &render.D2{},
//	    artifact.DialectDOT:     render.Graphviz{},
//	}
//	runner := pipeline.NewRunner(stills, nil, render.ClipConverter{}, logger)
//	report, _ := runner.Render(ctx, m.Diagrams, pipeline.Options{OutputDir: "work/diagrams"})
//
//	composer := compose.NewComposer(prober, logger)
//	out, _ := composer.Compose(ctx, "talk.mp4", compose.ClipsFrom(m.Diagrams), "talk_technified.mp4", compose.ModeOverlay)
//
// # Testing
//
// Every adapter that shells out takes a [proc.Runner], so tests substitute a
// recording runner and never need ffmpeg, mmdc, d2 or npm installed:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/compose/...            # Specific package
//	go test -run Example                 # Examples only
//
// [artifact]: https://pkg.go.dev/github.com/matzehuels/technify/pkg/artifact
// [io]: https://pkg.go.dev/github.com/matzehuels/technify/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/technify/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/technify/pkg/pipeline
// [compose]: https://pkg.go.dev/github.com/matzehuels/technify/pkg/compose
// [proc]: https://pkg.go.dev/github.com/matzehuels/technify/pkg/proc
// [proc.Runner]: https://pkg.go.dev/github.com/matzehuels/technify/pkg/proc#Runner
// [media/ffprobe]: https://pkg.go.dev/github.com/matzehuels/technify/pkg/media/ffprobe
// [cache]: https://pkg.go.dev/github.com/matzehuels/technify/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/technify/pkg/config
// [deps]: https://pkg.go.dev/github.com/matzehuels/technify/pkg/deps
// [errors]: https://pkg.go.dev/github.com/matzehuels/technify/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/technify/pkg/observability
package pkg
