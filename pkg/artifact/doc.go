// Package artifact defines the records that flow through technify.
//
// Upstream collaborators (transcription, scene classification, diagram code
// generation) hand technify validated [Scene] and [Diagram] records. The
// render orchestrator annotates each Diagram with the media files it produced
// and the timeline composer consumes the annotated records.
//
// # Core Types
//
//   - [Window]: a half-open time span [Start, End) in seconds
//   - [Scene]: a classified window of the source video with its transcript
//   - [Diagram]: a renderable artifact tied to a scene window
//   - [Content]: the tagged union carried by a Diagram, either a
//     [TextSource] (diagram-language source) or a [Structured] payload
//
// # Windows
//
// A Diagram's window is stored exactly once: either on its parent Scene or
// as an explicit override when a scene was split into several slides.
// Content variants never carry their own bounds.
//
//	d := artifact.Diagram{Scene: scene, Content: artifact.TextSource{Dialect: artifact.DialectMermaid, Source: src}}
//	w := d.Window() // scene window unless d.Override is set
//
// # Result Fields
//
// StillPath and ClipPath are empty until a render attempt succeeds. An empty
// ClipPath after rendering means the artifact is unrenderable and must be
// dropped downstream; it is never a fatal condition.
package artifact
