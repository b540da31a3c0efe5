package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/technify/pkg/artifact"
	"github.com/matzehuels/technify/pkg/errors"
)

// ToDOT converts a flowchart payload to Graphviz DOT format.
// The result can be rendered with [Graphviz].
//
// Edge endpoints that name no declared node are still emitted; Graphviz
// creates them with default attributes.
func ToDOT(g *artifact.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=white;\n")
	buf.WriteString("  dpi=192;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=18];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	if g == nil {
		buf.WriteString("}\n")
		return buf.String()
	}
	if g.Title != "" {
		fmt.Fprintf(&buf, "  labelloc=t;\n  fontsize=32;\n  label=%q;\n", g.Title)
	}
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := append([]string{fmt.Sprintf("label=%q", n.DisplayLabel())}, shapeAttrs(n.Shape)...)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if e.Label != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.From, e.To, e.Label)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func shapeAttrs(shape string) []string {
	switch shape {
	case artifact.ShapeDiamond:
		return []string{"shape=diamond", "style=filled"}
	case artifact.ShapeCircle:
		return []string{"shape=circle", "style=filled"}
	case artifact.ShapeRounded:
		return []string{"shape=box", "style=\"rounded,filled\"", "fillcolor=\"#eef3ff\""}
	default:
		return nil
	}
}

// Graphviz renders DOT source in-process. It needs no external binary.
type Graphviz struct{}

// RenderStill implements StillRenderer.
func (Graphviz) RenderStill(ctx context.Context, source, out string) error {
	png, err := RenderPNG(ctx, source)
	if err != nil {
		return err
	}
	return writeAtomic("graphviz", out, func(tmp string) error {
		if err := os.WriteFile(tmp, png, 0644); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s", tmp)
		}
		return nil
	})
}

// RenderPNG renders a DOT graph to PNG bytes using Graphviz.
// Parse and layout failures are reported as TOOL_FAILED.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolUnavailable, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolFailed, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.PNG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolFailed, err, "render DOT")
	}
	return buf.Bytes(), nil
}
