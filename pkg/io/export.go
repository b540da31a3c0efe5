package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/technify/pkg/artifact"
)

// WriteManifest encodes m as indented JSON and writes it to w.
//
// Each diagram is written with the index of the first scene whose window
// matches its own scene window. Diagrams whose scene is not listed in
// m.Scenes get the scene appended, so the output always decodes.
func WriteManifest(m *Manifest, w io.Writer) error {
	out := manifest{
		Version:  Version,
		Source:   m.Source,
		Scenes:   append([]artifact.Scene(nil), m.Scenes...),
		Diagrams: make([]diagram, len(m.Diagrams)),
	}
	if out.Scenes == nil {
		out.Scenes = []artifact.Scene{}
	}

	for i, d := range m.Diagrams {
		idx := sceneIndex(out.Scenes, d.Scene.Window)
		if idx < 0 {
			out.Scenes = append(out.Scenes, d.Scene)
			idx = len(out.Scenes) - 1
		}
		c, err := encodeContent(d.Content)
		if err != nil {
			return fmt.Errorf("diagram %d: %w", i, err)
		}
		out.Diagrams[i] = diagram{
			Scene:     idx,
			Window:    d.Override,
			Content:   c,
			StillPath: d.StillPath,
			ClipPath:  d.ClipPath,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportManifest writes m to path through a temporary sibling file.
func ExportManifest(m *Manifest, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := WriteManifest(m, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func sceneIndex(scenes []artifact.Scene, w artifact.Window) int {
	for i, s := range scenes {
		if s.Window == w {
			return i
		}
	}
	return -1
}

func encodeContent(c artifact.Content) (content, error) {
	switch v := c.(type) {
	case artifact.TextSource:
		return content{Kind: artifact.KindText, Dialect: v.Dialect, Source: v.Source}, nil
	case *artifact.TextSource:
		return content{Kind: artifact.KindText, Dialect: v.Dialect, Source: v.Source}, nil
	case artifact.Structured:
		return structuredContent(v), nil
	case *artifact.Structured:
		return structuredContent(*v), nil
	default:
		return content{}, fmt.Errorf("unsupported content %T", c)
	}
}

func structuredContent(s artifact.Structured) content {
	return content{
		Kind:      artifact.KindStructured,
		SlideType: s.Type,
		Graph:     s.Graph,
		Bullets:   s.Bullets,
		Code:      s.Code,
		Fallback:  s.Fallback,
	}
}
