package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/technify/pkg/artifact"
)

// ReadManifest decodes a JSON manifest from r.
//
// A missing version is read as [Version]. ReadManifest returns an error if:
//   - The JSON is malformed
//   - The version is newer than this build understands
//   - A diagram references a scene index outside the scenes array
//   - A content object has an unknown kind
//
// Errors are wrapped with the index of the offending diagram. ReadManifest
// does not close r.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var data manifest
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if data.Version == 0 {
		data.Version = Version
	}
	if data.Version != Version {
		return nil, fmt.Errorf("unsupported manifest version %d", data.Version)
	}

	m := &Manifest{
		Source:   data.Source,
		Scenes:   data.Scenes,
		Diagrams: make([]*artifact.Diagram, 0, len(data.Diagrams)),
	}
	for i, d := range data.Diagrams {
		if d.Scene < 0 || d.Scene >= len(data.Scenes) {
			return nil, fmt.Errorf("diagram %d: scene %d out of range (%d scenes)", i, d.Scene, len(data.Scenes))
		}
		c, err := decodeContent(d.Content)
		if err != nil {
			return nil, fmt.Errorf("diagram %d: %w", i, err)
		}
		m.Diagrams = append(m.Diagrams, &artifact.Diagram{
			Scene:     data.Scenes[d.Scene],
			Override:  d.Window,
			Content:   c,
			StillPath: d.StillPath,
			ClipPath:  d.ClipPath,
		})
	}
	return m, nil
}

// ImportManifest reads the manifest file at path.
func ImportManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadManifest(f)
}

func decodeContent(c content) (artifact.Content, error) {
	switch c.Kind {
	case artifact.KindText:
		return artifact.TextSource{Dialect: c.Dialect, Source: c.Source}, nil
	case artifact.KindStructured:
		return artifact.Structured{
			Type:     c.SlideType,
			Graph:    c.Graph,
			Bullets:  c.Bullets,
			Code:     c.Code,
			Fallback: c.Fallback,
		}, nil
	default:
		return nil, fmt.Errorf("unknown content kind %q", c.Kind)
	}
}
