package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/technify/pkg/artifact"
	"github.com/matzehuels/technify/pkg/errors"
	"github.com/matzehuels/technify/pkg/proc"
)

// recorder is a fake proc.Runner. It records every command and, unless
// told otherwise, writes a small file at the output argument chosen by
// outArg.
type recorder struct {
	mu       sync.Mutex
	cmds     []proc.Command
	outArg   func(args []string) string
	err      error
	noOutput bool
}

func (r *recorder) Run(ctx context.Context, c proc.Command) (proc.Result, error) {
	r.mu.Lock()
	r.cmds = append(r.cmds, c)
	r.mu.Unlock()
	if r.err != nil {
		return proc.Result{}, r.err
	}
	if !r.noOutput && r.outArg != nil {
		if out := r.outArg(c.Args); out != "" {
			if err := os.WriteFile(out, []byte("media"), 0644); err != nil {
				return proc.Result{}, err
			}
		}
	}
	return proc.Result{}, nil
}

func lastArg(args []string) string { return args[len(args)-1] }

func argAfter(flag string) func([]string) string {
	return func(args []string) string {
		if i := slices.Index(args, flag); i >= 0 && i+1 < len(args) {
			return args[i+1]
		}
		return ""
	}
}

func assertOnlyFile(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if name == "" && len(names) != 0 || name != "" && (len(names) != 1 || names[0] != name) {
		t.Errorf("directory contents = %v, want only %q", names, name)
	}
}

func TestMermaidRenderStill(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "diagram_000_10.0s.png")
	rec := &recorder{outArg: argAfter("-o")}

	err := Mermaid{Runner: rec}.RenderStill(context.Background(), "graph TD; A-->B", out)
	if err != nil {
		t.Fatalf("RenderStill: %v", err)
	}
	assertOnlyFile(t, dir, "diagram_000_10.0s.png")

	c := rec.cmds[0]
	if c.Name != "mmdc" || c.Timeout != DefaultStillTimeout {
		t.Errorf("command = %s (timeout %s)", c, c.Timeout)
	}
	for _, want := range []string{"--width 3840", "--backgroundColor white", "--configFile"} {
		if !strings.Contains(c.String(), want) {
			t.Errorf("command %q missing %q", c, want)
		}
	}
	if tmp := argAfter("-o")(c.Args); tmp == out || filepath.Ext(tmp) != ".png" {
		t.Errorf("render target %q should be a .png temp sibling", tmp)
	}
	for _, f := range []string{argAfter("-i")(c.Args), argAfter("--configFile")(c.Args)} {
		if _, err := os.Stat(f); !os.IsNotExist(err) {
			t.Errorf("temp input %s not removed", f)
		}
	}
}

func TestStillRenderFailures(t *testing.T) {
	tests := []struct {
		name     string
		rec      *recorder
		wantCode errors.Code
	}{
		{"ExitZeroNoFile", &recorder{noOutput: true}, errors.ErrCodeToolFailed},
		{"Failed", &recorder{err: errors.New(errors.ErrCodeToolFailed, "mmdc exited with status 1")}, errors.ErrCodeToolFailed},
		{"Missing", &recorder{err: errors.New(errors.ErrCodeToolUnavailable, "mmdc not found")}, errors.ErrCodeToolUnavailable},
		{"Timeout", &recorder{err: errors.New(errors.ErrCodeTimeout, "mmdc timed out")}, errors.ErrCodeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			out := filepath.Join(dir, "d.png")
			err := Mermaid{Runner: tt.rec}.RenderStill(context.Background(), "graph TD; A-->B", out)
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("err = %v, want %s", err, tt.wantCode)
			}
			assertOnlyFile(t, dir, "")
		})
	}
}

func TestD2RenderStill(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "d.png")
	rec := &recorder{outArg: lastArg}

	if err := (D2{Runner: rec}).RenderStill(context.Background(), "a -> b", out); err != nil {
		t.Fatalf("RenderStill: %v", err)
	}
	args := rec.cmds[0].Args
	if i := slices.Index(args, "--target"); i < 0 || args[i+1] != "" {
		t.Errorf("--target '' missing: %q", args)
	}
	if !slices.Contains(args, "--scale") || !slices.Contains(args, "--pad") {
		t.Errorf("scale/pad missing: %q", args)
	}
	assertOnlyFile(t, dir, "d.png")
}

func TestClipConverter(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "d.mp4")
	rec := &recorder{outArg: lastArg}

	conv := ClipConverter{Runner: rec}
	if err := conv.Convert(context.Background(), "d.png", out, 12.5); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	args := rec.cmds[0].Args
	if i := slices.Index(args, "-t"); args[i+1] != "12.500" {
		t.Errorf("-t = %q", args[i+1])
	}
	if i := slices.Index(args, "-r"); args[i+1] != "5" {
		t.Errorf("-r = %q", args[i+1])
	}
	assertOnlyFile(t, dir, "d.mp4")

	if err := conv.Convert(context.Background(), "d.png", out, 0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("zero duration err = %v", err)
	}
}

func TestFramingFilter(t *testing.T) {
	got := Framing{Width: 1280, Height: 720, PadColor: "black"}.withDefaults().Filter()
	want := "scale=1280:720:force_original_aspect_ratio=decrease,pad=1280:720:(ow-iw)/2:(oh-ih)/2:color=black"
	if got != want {
		t.Errorf("Filter() = %q\nwant %q", got, want)
	}
}

func newProject(t *testing.T, withModules bool) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if withModules {
		bin := filepath.Join(dir, "node_modules", ".bin")
		if err := os.MkdirAll(bin, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(bin, "remotion"), []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func bullets() artifact.Structured {
	return artifact.Structured{Type: artifact.SlideBullets, Bullets: &artifact.Bullets{Items: []string{"one", "two"}}}
}

func TestRemotionAnimate(t *testing.T) {
	project := newProject(t, true)
	outDir := t.TempDir()
	out := filepath.Join(outDir, "d.mp4")
	rec := &recorder{outArg: func(args []string) string { return args[3] }}

	r := &Remotion{Dir: project, Runner: rec}
	if err := r.Animate(context.Background(), bullets(), 15, out); err != nil {
		t.Fatalf("Animate: %v", err)
	}
	if len(rec.cmds) != 1 {
		t.Fatalf("got %d commands, want 1 (no npm install with node_modules present)", len(rec.cmds))
	}
	c := rec.cmds[0]
	if c.Args[2] != "BulletSlide" || c.Dir != project {
		t.Errorf("command = %s in %s", c, c.Dir)
	}
	if !slices.Contains(c.Args, "--concurrency=4") {
		t.Errorf("concurrency missing: %q", c.Args)
	}
	assertOnlyFile(t, outDir, "d.mp4")

	leftovers, _ := filepath.Glob(filepath.Join(project, "props-*.json"))
	if len(leftovers) != 0 {
		t.Errorf("props files left behind: %v", leftovers)
	}
}

func TestRemotionInstallOnce(t *testing.T) {
	project := newProject(t, false)
	var installs int
	rec := proc.RunnerFunc(func(ctx context.Context, c proc.Command) (proc.Result, error) {
		if c.Name == "npm" {
			installs++
			if installs == 1 {
				return proc.Result{}, errors.New(errors.ErrCodeToolFailed, "npm exited with status 1")
			}
			bin := filepath.Join(project, "node_modules", ".bin")
			_ = os.MkdirAll(bin, 0755)
			return proc.Result{}, os.WriteFile(filepath.Join(bin, "remotion"), nil, 0755)
		}
		return proc.Result{}, os.WriteFile(c.Args[3], []byte("mp4"), 0644)
	})

	r := &Remotion{Dir: project, Runner: rec}
	out := filepath.Join(t.TempDir(), "d.mp4")

	if err := r.Animate(context.Background(), bullets(), 5, out); !errors.Is(err, errors.ErrCodeToolFailed) {
		t.Fatalf("first Animate err = %v, want install failure", err)
	}
	for i := 0; i < 3; i++ {
		if err := r.Animate(context.Background(), bullets(), 5, out); err != nil {
			t.Fatalf("Animate #%d: %v", i, err)
		}
	}
	if installs != 2 {
		t.Errorf("npm install ran %d times, want 2 (failure retried, success memoised)", installs)
	}
}

func TestRemotionUnavailable(t *testing.T) {
	tests := []struct {
		name string
		dir  string
	}{
		{"NoDir", ""},
		{"NoProject", t.TempDir()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Remotion{Dir: tt.dir, Runner: &recorder{}}
			err := r.Animate(context.Background(), bullets(), 5, filepath.Join(t.TempDir(), "d.mp4"))
			if !errors.Is(err, errors.ErrCodeToolUnavailable) {
				t.Errorf("err = %v", err)
			}
		})
	}
}

func TestProps(t *testing.T) {
	s := artifact.Structured{
		Type:  artifact.SlideFlowchart,
		Graph: &artifact.Graph{Nodes: []artifact.GraphNode{{ID: "a", Label: "A"}}},
	}
	got, err := Props(s, 12.5)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"durationSeconds":12.5,"nodes":[{"id":"a","label":"A"}]}`
	if string(got) != want {
		t.Errorf("Props = %s\nwant %s", got, want)
	}

	if _, err := Props(artifact.Structured{Type: artifact.SlideCode}, 1); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty payload err = %v", err)
	}
}

func TestSupports(t *testing.T) {
	r := &Remotion{}
	for _, st := range []artifact.SlideType{artifact.SlideFlowchart, artifact.SlideBullets, artifact.SlideCode} {
		if !r.Supports(st) {
			t.Errorf("Supports(%s) = false", st)
		}
	}
	if r.Supports("chart") {
		t.Error("Supports(chart) = true")
	}
}

func TestToDOT(t *testing.T) {
	g := &artifact.Graph{
		Title: "Flow",
		Nodes: []artifact.GraphNode{
			{ID: "start", Label: "Start"},
			{ID: "check", Label: "OK?", Shape: artifact.ShapeDiamond},
		},
		Edges: []artifact.GraphEdge{{From: "start", To: "check", Label: "next"}},
	}
	dot := ToDOT(g)
	for _, want := range []string{
		`"start" [label="Start"];`,
		`"check" [label="OK?", shape=diamond, style=filled];`,
		`"start" -> "check" [label="next"];`,
		`label="Flow";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if !strings.HasPrefix(ToDOT(nil), "digraph G {") {
		t.Error("ToDOT(nil) should still produce a graph")
	}
}

func TestGraphvizRenderStill(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "d.png")
	dot := ToDOT(&artifact.Graph{
		Nodes: []artifact.GraphNode{{ID: "a"}, {ID: "b"}},
		Edges: []artifact.GraphEdge{{From: "a", To: "b"}},
	})
	if err := (Graphviz{}).RenderStill(context.Background(), dot, out); err != nil {
		t.Fatalf("RenderStill: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
	assertOnlyFile(t, dir, "d.png")
}
