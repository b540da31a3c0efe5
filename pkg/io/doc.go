// Package io provides JSON import and export for technify manifests.
//
// # Overview
//
// A manifest is the hand-off format between technify and its upstream
// collaborators. It lists the classified scenes of one source video and the
// diagrams generated for them. The render command reads a manifest,
// annotates each diagram with the files it produced and writes the result
// back out, so the compose command (or a human reviewer) can pick up where
// rendering left off.
//
// # JSON Format
//
//	{
//	  "version": 1,
//	  "source": "talk.mp4",
//	  "scenes": [
//	    {"start": 10, "end": 20, "content_type": "architecture", "segments": [...]}
//	  ],
//	  "diagrams": [
//	    {
//	      "scene": 0,
//	      "content": {"kind": "text", "dialect": "mermaid", "source": "graph TD; A-->B"}
//	    },
//	    {
//	      "scene": 0,
//	      "window": {"start": 15, "end": 20},
//	      "content": {"kind": "structured", "slide_type": "bullets", "bullets": {"items": ["a", "b"]}},
//	      "clip_path": "work/diagrams/diagram_001_15.0s.mp4"
//	    }
//	  ]
//	}
//
// # Diagram Fields
//
// Required:
//   - scene: index into the scenes array
//   - content: tagged by "kind"; "text" carries dialect and source,
//     "structured" carries slide_type and the matching payload
//
// Optional:
//   - window: override window for scenes split into several slides
//   - still_path, clip_path: render results
//
// # Validation
//
// Upstream records are trusted; decoding only rejects manifests it cannot
// represent: an unknown version, an unknown content kind, or a scene index
// outside the scenes array. Window sanity is left to the orchestrator,
// which already treats degenerate windows as unrenderable.
//
// # Round Trip
//
// [WriteManifest] emits everything [ReadManifest] understands, so a
// manifest can be read, rendered, written and read again without loss.
// [ExportManifest] writes through a temporary sibling file and renames it
// into place.
package io
