package io

import "github.com/matzehuels/technify/pkg/artifact"

// Version is the manifest format version written by [WriteManifest].
const Version = 1

// Manifest is the decoded form of a manifest file.
type Manifest struct {
	// Source is the path of the source video, as written by upstream.
	Source string

	// Scenes are the classified scenes in input order.
	Scenes []artifact.Scene

	// Diagrams reference Scenes by pointer identity after decoding.
	Diagrams []*artifact.Diagram
}

// Rendered returns the diagrams that carry a clip path, in input order.
func (m *Manifest) Rendered() []*artifact.Diagram {
	var out []*artifact.Diagram
	for _, d := range m.Diagrams {
		if d.Rendered() {
			out = append(out, d)
		}
	}
	return out
}

type manifest struct {
	Version  int              `json:"version"`
	Source   string           `json:"source,omitempty"`
	Scenes   []artifact.Scene `json:"scenes"`
	Diagrams []diagram        `json:"diagrams"`
}

type diagram struct {
	Scene     int              `json:"scene"`
	Window    *artifact.Window `json:"window,omitempty"`
	Content   content          `json:"content"`
	StillPath string           `json:"still_path,omitempty"`
	ClipPath  string           `json:"clip_path,omitempty"`
}

// content flattens both variants of artifact.Content into one object
// discriminated by Kind.
type content struct {
	Kind string `json:"kind"`

	Dialect artifact.Dialect `json:"dialect,omitempty"`
	Source  string           `json:"source,omitempty"`

	SlideType artifact.SlideType   `json:"slide_type,omitempty"`
	Graph     *artifact.Graph      `json:"graph,omitempty"`
	Bullets   *artifact.Bullets    `json:"bullets,omitempty"`
	Code      *artifact.Code       `json:"code,omitempty"`
	Fallback  *artifact.TextSource `json:"fallback,omitempty"`
}
