package compose

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
	"github.com/matzehuels/technify/pkg/media/ffprobe"
	"github.com/matzehuels/technify/pkg/proc"
)

func clip(start, end float64, path string) Clip {
	return Clip{Window: artifact.Window{Start: start, End: end}, Path: path}
}

// =============================================================================
// Modes
// =============================================================================

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"pip", ModeOverlay, false},
		{"side_by_side", ModeSideBySide, false},
		{"replace", ModeReplace, false},
		{" replace ", ModeReplace, false},
		{"overlay", "", true},
		{"PIP", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidMode) {
					t.Fatalf("err = %v, want INVALID_MODE", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseMode(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"": StrategyFilter, "filter": StrategyFilter, "stitch": StrategyStitch} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseStrategy("segments"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

// =============================================================================
// Clips and Segments
// =============================================================================

func TestClamp(t *testing.T) {
	got := Clamp([]Clip{
		clip(90, 120, "late"),
		clip(-5, 10, "early"),
		clip(100, 110, "after"),
		clip(40, 40, "empty"),
	}, 100)
	want := []Clip{clip(0, 10, "early"), clip(90, 100, "late")}
	if !slices.Equal(got, want) {
		t.Errorf("Clamp = %v, want %v", got, want)
	}
}

func TestClipsFrom(t *testing.T) {
	dir := t.TempDir()
	path := func(name string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("mp4"), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	b, a1, a2 := path("b.mp4"), path("a1.mp4"), path("a2.mp4")
	mk := func(start, end float64, clipPath string) *artifact.Diagram {
		return &artifact.Diagram{Scene: artifact.Scene{Window: artifact.Window{Start: start, End: end}}, ClipPath: clipPath}
	}

	got := ClipsFrom([]*artifact.Diagram{
		mk(30, 40, b),
		mk(5, 10, ""),
		nil,
		mk(10, 20, a1),
		mk(10, 15, a2),
		mk(50, 60, filepath.Join(dir, "missing.mp4")),
	})
	want := []Clip{clip(10, 20, a1), clip(10, 15, a2), clip(30, 40, b)}
	if !slices.Equal(got, want) {
		t.Errorf("ClipsFrom = %v, want %v", got, want)
	}
}

func TestSegmentsScenarioA(t *testing.T) {
	clips := []Clip{clip(10, 20, "a.mp4"), clip(20, 35, "b.mp4")}
	got := Segments(clips, 100)

	type span struct {
		start, end float64
		src        string
	}
	want := []span{{0, 10, "source"}, {10, 20, "a.mp4"}, {20, 35, "b.mp4"}, {35, 100, "source"}}
	if len(got) != len(want) {
		t.Fatalf("got %d segments: %v", len(got), got)
	}
	copies := 0
	for i, s := range got {
		src := "source"
		if s.Clip != nil {
			src = s.Clip.Path
		} else {
			copies++
		}
		if (span{s.Start, s.End, src}) != want[i] {
			t.Errorf("segment %d = %v, want %v", i, s, want[i])
		}
	}
	if copies != 2 {
		t.Errorf("stream-copy segments = %d, want 2", copies)
	}
	if off := got[2].Offset(); off != 0 {
		t.Errorf("offset of b = %v, want 0", off)
	}
}

func TestSegmentsCoverage(t *testing.T) {
	const duration = 60.0
	tests := []struct {
		name  string
		clips []Clip
	}{
		{"None", nil},
		{"Touching", []Clip{clip(0, 10, "a"), clip(10, 20, "b"), clip(20, 60, "c")}},
		{"Overlapping", []Clip{clip(5, 30, "a"), clip(20, 40, "b")}},
		{"Nested", []Clip{clip(5, 50, "a"), clip(10, 20, "b")}},
		{"Identical", []Clip{clip(10, 20, "a"), clip(10, 20, "b")}},
		{"WholeSource", []Clip{clip(0, 60, "a")}},
		{"Unsorted", []Clip{clip(40, 50, "b"), clip(1, 2, "a")}},
		{"PastEnd", []Clip{clip(55, 90, "a")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := Segments(tt.clips, duration)
			if len(segs) == 0 {
				t.Fatal("no segments")
			}
			if segs[0].Start != 0 || segs[len(segs)-1].End != duration {
				t.Fatalf("coverage [%v,%v), want [0,%v)", segs[0].Start, segs[len(segs)-1].End, duration)
			}
			for i, s := range segs {
				if s.Duration() <= 0 {
					t.Errorf("segment %d is empty: %v", i, s)
				}
				if i == 0 {
					continue
				}
				if segs[i-1].End != s.Start {
					t.Errorf("gap or overlap between %v and %v", segs[i-1], s)
				}
				if segs[i-1].Clip == s.Clip {
					t.Errorf("unmerged neighbours %v and %v", segs[i-1], s)
				}
			}
		})
	}
}

func TestSegmentsLaterEventWins(t *testing.T) {
	segs := Segments([]Clip{clip(10, 20, "a"), clip(10, 20, "b")}, 30)
	if len(segs) != 3 || segs[1].Clip == nil || segs[1].Clip.Path != "b" {
		t.Errorf("segments = %v", segs)
	}
}

func TestSegmentsIgnoreClipOrder(t *testing.T) {
	tests := []struct {
		name  string
		clips []Clip
	}{
		{"sorted", []Clip{clip(10, 20, "a"), clip(20, 35, "b")}},
		{"reversed", []Clip{clip(20, 35, "b"), clip(10, 20, "a")}},
	}
	want := "[0.000,10.000) source [10.000,20.000) a [20.000,35.000) b [35.000,100.000) source"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var parts []string
			for _, s := range Segments(tt.clips, 100) {
				parts = append(parts, s.String())
			}
			if got := strings.Join(parts, " "); got != want {
				t.Errorf("Segments = %s, want %s", got, want)
			}
		})
	}
}

// =============================================================================
// Filter Graphs
// =============================================================================

func TestOverlayGraphScenarioB(t *testing.T) {
	g := OverlayGraph("src.mp4", []Clip{clip(10, 20, "a.mp4"), clip(20, 35, "b.mp4")}, Layout{Width: 1920, Height: 1080})

	want := "[1:v]setpts=PTS-STARTPTS+10/TB,scale=768:-2[pip0];" +
		"[0:v][pip0]overlay=W-w-20:H-h-20:enable='gte(t,10)*lt(t,20)':eof_action=pass[v0];" +
		"[2:v]setpts=PTS-STARTPTS+20/TB,scale=768:-2[pip1];" +
		"[v0][pip1]overlay=W-w-20:H-h-20:enable='gte(t,20)*lt(t,35)':eof_action=pass[vout]"
	if g.Filter != want {
		t.Errorf("filter =\n%s\nwant\n%s", g.Filter, want)
	}
	if !slices.Equal(g.Inputs, []string{"src.mp4", "a.mp4", "b.mp4"}) {
		t.Errorf("inputs = %v", g.Inputs)
	}
	if n := strings.Count(g.Filter, "overlay="); n != 2 {
		t.Errorf("overlay stages = %d, want 2", n)
	}
}

func TestOverlayGraphOddWidth(t *testing.T) {
	g := OverlayGraph("src.mp4", []Clip{clip(1.5, 2.25, "a.mp4")}, Layout{Width: 1279, Height: 720, Scale: 0.3, Margin: 8})
	for _, want := range []string{"scale=382:-2", "overlay=W-w-8:H-h-8", "gte(t,1.5)*lt(t,2.25)", "[0:v][pip0]", "[vout]"} {
		if !strings.Contains(g.Filter, want) {
			t.Errorf("filter %q missing %q", g.Filter, want)
		}
	}
}

func TestSideBySideGraph(t *testing.T) {
	g := SideBySideGraph("src.mp4", []Clip{clip(10, 20, "a.mp4"), clip(15, 35, "b.mp4")}, Layout{Width: 1280, Height: 720})

	for _, want := range []string{
		"[0:v]split=3[base][left0][left1]",
		"[left0]scale=640:720:force_original_aspect_ratio=decrease,pad=640:720:(ow-iw)/2:(oh-ih)/2:color=black,pad=1280:720:0:0:color=black[lp0]",
		"[1:v]setpts=PTS-STARTPTS+10/TB,scale=640:720:force_original_aspect_ratio=decrease,pad=640:720:(ow-iw)/2:(oh-ih)/2:color=white[rp0]",
		"[lp0][rp0]overlay=640:0:eof_action=pass[sbs0]",
		"[base][sbs0]overlay=0:0:enable='gte(t,10)*lt(t,20)'[v0]",
		"[v0][sbs1]overlay=0:0:enable='gte(t,15)*lt(t,35)'[vout]",
	} {
		if !strings.Contains(g.Filter, want) {
			t.Errorf("filter missing %q\n%s", want, g.Filter)
		}
	}
	if g.Output != "[vout]" || len(g.Inputs) != 3 {
		t.Errorf("graph = %+v", g)
	}
}

func TestConcatManifest(t *testing.T) {
	got := ConcatManifest([]string{"/tmp/a.mp4", "/tmp/it's.mp4"})
	want := "file '/tmp/a.mp4'\nfile '/tmp/it'\\''s.mp4'\n"
	if got != want {
		t.Errorf("manifest = %q, want %q", got, want)
	}
}

// =============================================================================
// Composer
// =============================================================================

type fakeProber struct{ info ffprobe.Info }

func (f fakeProber) Probe(ctx context.Context, path string) (ffprobe.Info, error) {
	return f.info, nil
}

// ffmpegRecorder writes the last argument of every command as the output
// file and keeps the concat manifest it was handed.
type ffmpegRecorder struct {
	mu       sync.Mutex
	calls    [][]string
	manifest string
	failOn   string // fail any command whose args contain this value
}

func (r *ffmpegRecorder) Run(ctx context.Context, cmd proc.Command) (proc.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, cmd.Args)

	if r.failOn != "" && slices.Contains(cmd.Args, r.failOn) {
		return proc.Result{}, errors.Wrap(errors.ErrCodeToolFailed,
			&proc.RunError{Name: "ffmpeg", Stderr: "Invalid data found when processing input"},
			"ffmpeg exited with status 1")
	}
	if i := slices.Index(cmd.Args, "concat"); i >= 0 {
		data, err := os.ReadFile(cmd.Args[i+4])
		if err != nil {
			return proc.Result{}, err
		}
		r.manifest = string(data)
	}
	out := cmd.Args[len(cmd.Args)-1]
	return proc.Result{}, os.WriteFile(out, []byte("composed"), 0644)
}

func (r *ffmpegRecorder) count(pred func([]string) bool) int {
	n := 0
	for _, c := range r.calls {
		if pred(c) {
			n++
		}
	}
	return n
}

func isCopy(args []string) bool {
	return slices.Contains(args, "-c") && slices.Contains(args, "copy") && !slices.Contains(args, "concat")
}

type composeFixture struct {
	composer *Composer
	ffmpeg   *ffmpegRecorder
	source   string
	out      string
	tempDir  string
	outDir   string
}

func newComposeFixture(t *testing.T) *composeFixture {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, "talk.mp4")
	if err := os.WriteFile(source, []byte("original source bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")
	f := &composeFixture{
		ffmpeg:  &ffmpegRecorder{},
		source:  source,
		out:     filepath.Join(outDir, "final.mp4"),
		tempDir: filepath.Join(dir, "tmp"),
		outDir:  outDir,
	}
	f.composer = NewComposer(fakeProber{ffprobe.Info{Duration: 100, Width: 1920, Height: 1080, FrameRate: 30, HasAudio: true}}, nil)
	f.composer.Runner = f.ffmpeg
	f.composer.TempDir = f.tempDir
	return f
}

func entries(t *testing.T, dir string) []string {
	t.Helper()
	list, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	var names []string
	for _, e := range list {
		names = append(names, e.Name())
	}
	return names
}

func scenarioClips() []Clip {
	return []Clip{clip(10, 20, "/clips/a.mp4"), clip(20, 35, "/clips/b.mp4")}
}

func TestComposeEmptyCopiesSource(t *testing.T) {
	for _, mode := range Modes {
		t.Run(mode.String(), func(t *testing.T) {
			f := newComposeFixture(t)
			f.composer.Prober = nil

			got, err := f.composer.Compose(context.Background(), f.source, nil, f.out, mode)
			if err != nil || got != f.out {
				t.Fatalf("Compose = %q, %v", got, err)
			}
			want, _ := os.ReadFile(f.source)
			data, _ := os.ReadFile(f.out)
			if !bytes.Equal(data, want) {
				t.Errorf("output differs from source")
			}
			if len(f.ffmpeg.calls) != 0 {
				t.Errorf("ffmpeg ran %d times", len(f.ffmpeg.calls))
			}
		})
	}
}

func TestComposeOverlay(t *testing.T) {
	f := newComposeFixture(t)

	if _, err := f.composer.Compose(context.Background(), f.source, scenarioClips(), f.out, ModeOverlay); err != nil {
		t.Fatal(err)
	}
	if len(f.ffmpeg.calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want exactly one full encode", len(f.ffmpeg.calls))
	}
	args := f.ffmpeg.calls[0]
	want := OverlayGraph(f.source, scenarioClips(), Layout{Width: 1920, Height: 1080}).Filter
	if i := slices.Index(args, "-filter_complex"); i < 0 || args[i+1] != want {
		t.Errorf("filter_complex not passed through: %v", args)
	}
	if !slices.Contains(args, "0:a?") {
		t.Error("source audio should be mapped")
	}
	if !containsRun(args, []string{"-c:a", "copy"}) {
		t.Errorf("source audio should be copied: %v", args)
	}
	if names := entries(t, f.outDir); !slices.Equal(names, []string{"final.mp4"}) {
		t.Errorf("output dir = %v", names)
	}
}

func TestComposeAudioCopyFallback(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		calls  int
		ok     bool
	}{
		{"container rejects codec", "Could not find tag for codec pcm_s16le in stream #1, codec not currently supported in container", 2, true},
		{"other failure", "Invalid data found when processing input", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newComposeFixture(t)
			var calls [][]string
			f.composer.Runner = proc.RunnerFunc(func(ctx context.Context, cmd proc.Command) (proc.Result, error) {
				calls = append(calls, cmd.Args)
				if containsRun(cmd.Args, []string{"-c:a", "copy"}) {
					return proc.Result{}, errors.Wrap(errors.ErrCodeToolFailed,
						&proc.RunError{Name: "ffmpeg", Stderr: tt.stderr}, "ffmpeg exited with status 1")
				}
				return proc.Result{}, os.WriteFile(cmd.Args[len(cmd.Args)-1], []byte("composed"), 0644)
			})

			_, err := f.composer.Compose(context.Background(), f.source, scenarioClips(), f.out, ModeOverlay)
			if (err == nil) != tt.ok {
				t.Fatalf("Compose err = %v, want ok=%v", err, tt.ok)
			}
			if len(calls) != tt.calls {
				t.Fatalf("ffmpeg calls = %d, want %d", len(calls), tt.calls)
			}
			if tt.ok && !containsRun(calls[1], []string{"-c:a", "aac"}) {
				t.Errorf("retry should encode audio as aac: %v", calls[1])
			}
		})
	}
}

func TestComposeSideBySideStrategies(t *testing.T) {
	tests := []struct {
		strategy  Strategy
		wantCalls int
		wantCopy  int
	}{
		{StrategyFilter, 1, 0},
		{StrategyStitch, 5, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			f := newComposeFixture(t)
			f.composer.Strategy = tt.strategy

			if _, err := f.composer.Compose(context.Background(), f.source, scenarioClips(), f.out, ModeSideBySide); err != nil {
				t.Fatal(err)
			}
			if len(f.ffmpeg.calls) != tt.wantCalls {
				t.Errorf("ffmpeg calls = %d, want %d", len(f.ffmpeg.calls), tt.wantCalls)
			}
			if got := f.ffmpeg.count(isCopy); got != tt.wantCopy {
				t.Errorf("stream copies = %d, want %d", got, tt.wantCopy)
			}
		})
	}
}

func TestComposeReplace(t *testing.T) {
	f := newComposeFixture(t)

	if _, err := f.composer.Compose(context.Background(), f.source, scenarioClips(), f.out, ModeReplace); err != nil {
		t.Fatal(err)
	}
	if len(f.ffmpeg.calls) != 5 {
		t.Fatalf("ffmpeg calls = %d, want 4 segments and a concat", len(f.ffmpeg.calls))
	}
	if got := f.ffmpeg.count(isCopy); got != 2 {
		t.Errorf("stream-copied segments = %d, want 2", got)
	}
	reencoded := f.ffmpeg.count(func(a []string) bool { return slices.Contains(a, "libx264") })
	if reencoded != 2 {
		t.Errorf("re-encoded segments = %d, want 2", reencoded)
	}

	last := f.ffmpeg.calls[4]
	if !slices.Equal(last[:9], []string{"-y", "-f", "concat", "-safe", "0", "-i", last[6], "-c", "copy"}) {
		t.Errorf("concat args = %v", last)
	}
	lines := strings.Split(strings.TrimSpace(f.ffmpeg.manifest), "\n")
	if len(lines) != 4 {
		t.Fatalf("manifest = %q", f.ffmpeg.manifest)
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, "file '/") || !strings.Contains(line, "-seg00") || !strings.HasSuffix(line, ".mp4'") {
			t.Errorf("manifest line %d = %q", i, line)
		}
	}
	if names := entries(t, f.tempDir); len(names) != 0 {
		t.Errorf("temp files left behind: %v", names)
	}
}

func TestComposeReplaceClipOffset(t *testing.T) {
	f := newComposeFixture(t)
	// b starts inside a, so its segment is read from the start of b.
	clips := []Clip{clip(10, 30, "/clips/a.mp4"), clip(20, 25, "/clips/b.mp4")}

	if _, err := f.composer.Compose(context.Background(), f.source, clips, f.out, ModeReplace); err != nil {
		t.Fatal(err)
	}
	want := []string{"-ss", "0", "-t", "5", "-i", "/clips/b.mp4"}
	var found bool
	for _, args := range f.ffmpeg.calls {
		if !slices.Contains(args, "/clips/b.mp4") {
			continue
		}
		found = true
		if !containsRun(args, want) {
			t.Errorf("clip b args = %v, want run %v", args, want)
		}
	}
	if !found {
		t.Error("no ffmpeg call reads clip b")
	}
}

// containsRun reports whether want appears in args as a contiguous run.
func containsRun(args, want []string) bool {
	for i := 0; i+len(want) <= len(args); i++ {
		if slices.Equal(args[i:i+len(want)], want) {
			return true
		}
	}
	return false
}

func TestComposeReplaceKeepsExactRate(t *testing.T) {
	f := newComposeFixture(t)
	f.composer.Prober = fakeProber{ffprobe.Info{Duration: 100, Width: 1920, Height: 1080, FrameRate: 29.97, Rate: "30000/1001", HasAudio: true}}

	if _, err := f.composer.Compose(context.Background(), f.source, scenarioClips(), f.out, ModeReplace); err != nil {
		t.Fatal(err)
	}
	encoded := 0
	for _, args := range f.ffmpeg.calls {
		if i := slices.Index(args, "-filter_complex"); i >= 0 {
			encoded++
			if !strings.Contains(args[i+1], "fps=30000/1001") {
				t.Errorf("filter = %q, want exact source rate", args[i+1])
			}
		}
	}
	if encoded != 2 {
		t.Errorf("re-encoded segments = %d, want 2", encoded)
	}
}

func TestComposeFailureLeavesNothing(t *testing.T) {
	f := newComposeFixture(t)
	f.ffmpeg.failOn = "concat"

	_, err := f.composer.Compose(context.Background(), f.source, scenarioClips(), f.out, ModeReplace)
	if !errors.Is(err, errors.ErrCodeToolFailed) {
		t.Fatalf("err = %v, want TOOL_FAILED", err)
	}
	if got := proc.StderrOf(err); got != "Invalid data found when processing input" {
		t.Errorf("stderr = %q", got)
	}
	if _, err := os.Stat(f.out); !os.IsNotExist(err) {
		t.Error("output should not exist after a failed composition")
	}
	if names := entries(t, f.outDir); len(names) != 0 {
		t.Errorf("output dir = %v", names)
	}
	if names := entries(t, f.tempDir); len(names) != 0 {
		t.Errorf("temp files left behind: %v", names)
	}
}

func TestComposeRejectsUnknownMode(t *testing.T) {
	f := newComposeFixture(t)
	_, err := f.composer.Compose(context.Background(), f.source, scenarioClips(), f.out, Mode("mosaic"))
	if !errors.Is(err, errors.ErrCodeInvalidMode) {
		t.Errorf("err = %v", err)
	}
	if len(f.ffmpeg.calls) != 0 {
		t.Error("no work should start for an unknown mode")
	}
}

func TestComposeClipsOutsideSource(t *testing.T) {
	f := newComposeFixture(t)
	_, err := f.composer.Compose(context.Background(), f.source, []Clip{clip(150, 160, "/clips/a.mp4")}, f.out, ModeOverlay)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.ffmpeg.calls) != 0 {
		t.Error("a clip past the end should be dropped")
	}
	data, _ := os.ReadFile(f.out)
	if string(data) != "original source bytes" {
		t.Errorf("output = %q", data)
	}
}
