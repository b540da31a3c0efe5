package artifact

import "strings"

// =============================================================================
// Content - Tagged Union
// =============================================================================

// Content is the single content representation carried by a Diagram.
// The set of implementations is closed: [TextSource] and [Structured].
type Content interface {
	// Kind returns the wire discriminator: "text" or "structured".
	Kind() string
	isContent()
}

// Content kinds as they appear in manifests.
const (
	KindText       = "text"
	KindStructured = "structured"
)

// =============================================================================
// TextSource - Diagram-Language Source
// =============================================================================

// Dialect names a diagram language understood by a still renderer.
type Dialect string

// Supported diagram dialects.
const (
	DialectMermaid Dialect = "mermaid"
	DialectD2      Dialect = "d2"
	DialectDOT     Dialect = "dot"
)

// Dialects lists every dialect a still renderer exists for.
var Dialects = []Dialect{DialectMermaid, DialectD2, DialectDOT}

// Supported reports whether d is one of [Dialects].
func (d Dialect) Supported() bool {
	for _, known := range Dialects {
		if d == known {
			return true
		}
	}
	return false
}

// TextSource is free-text diagram source in one dialect.
type TextSource struct {
	Dialect Dialect `json:"dialect"`
	Source  string  `json:"source"`
}

// Kind implements Content.
func (TextSource) Kind() string { return KindText }
func (TextSource) isContent()   {}

// Renderable reports whether the source is non-blank and in a supported dialect.
func (t TextSource) Renderable() bool {
	return t.Dialect.Supported() && strings.TrimSpace(t.Source) != ""
}

// =============================================================================
// Structured - Validated Slide Payloads
// =============================================================================

// SlideType selects the payload of a Structured artifact and, for the
// animated tier, the composition template.
type SlideType string

// Slide types.
const (
	SlideFlowchart SlideType = "flowchart"
	SlideBullets   SlideType = "bullets"
	SlideCode      SlideType = "code"
)

// Node shapes accepted in flowchart payloads.
const (
	ShapeBox     = "box"
	ShapeDiamond = "diamond"
	ShapeCircle  = "circle"
	ShapeRounded = "rounded"
)

// Structured is validated structured data for one slide. Only the payload
// matching Type is meaningful. Fallback optionally carries static-tier
// content produced alongside the payload.
type Structured struct {
	Type     SlideType   `json:"slide_type"`
	Graph    *Graph      `json:"graph,omitempty"`
	Bullets  *Bullets    `json:"bullets,omitempty"`
	Code     *Code       `json:"code,omitempty"`
	Fallback *TextSource `json:"fallback,omitempty"`
}

// Kind implements Content.
func (Structured) Kind() string { return KindStructured }
func (Structured) isContent()   {}

// Empty reports whether the payload selected by Type is missing or has
// nothing to show.
func (s Structured) Empty() bool {
	switch s.Type {
	case SlideFlowchart:
		return s.Graph == nil || len(s.Graph.Nodes) == 0
	case SlideBullets:
		return s.Bullets == nil || len(s.Bullets.Items) == 0
	case SlideCode:
		return s.Code == nil || strings.TrimSpace(s.Code.Source) == ""
	default:
		return true
	}
}

// Payload returns the payload selected by Type, or nil.
func (s Structured) Payload() any {
	switch s.Type {
	case SlideFlowchart:
		if s.Graph != nil {
			return s.Graph
		}
	case SlideBullets:
		if s.Bullets != nil {
			return s.Bullets
		}
	case SlideCode:
		if s.Code != nil {
			return s.Code
		}
	}
	return nil
}

// Graph is a flowchart payload of labelled nodes and directed edges.
type Graph struct {
	Title string      `json:"title,omitempty"`
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges,omitempty"`
}

// GraphNode is one flowchart node.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Shape string `json:"shape,omitempty"` // box (default), diamond, circle, rounded
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n GraphNode) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// GraphEdge is a directed flowchart edge.
type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Bullets is a titled bullet list slide.
type Bullets struct {
	Title string   `json:"title,omitempty"`
	Items []string `json:"items"`
}

// Code is a source-code slide.
type Code struct {
	Title     string `json:"title,omitempty"`
	Language  string `json:"language,omitempty"`
	Source    string `json:"source"`
	Highlight []int  `json:"highlight,omitempty"` // 1-based line numbers
}
