package render

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/matzehuels/technify/pkg/proc"
)

// =============================================================================
// Mermaid
// =============================================================================

// mermaidConfig is passed to mmdc with --configFile.
const mermaidConfig = `{"fontSize":20,"wrap":true}`

// Mermaid renders mermaid source with the mermaid-cli (mmdc).
// Install with: npm install -g @mermaid-js/mermaid-cli
type Mermaid struct {
	Binary     string        // default "mmdc"
	Runner     proc.Runner   // default proc.Exec
	Timeout    time.Duration // default DefaultStillTimeout
	Width      int           // default 3840
	Background string        // default "white"
}

// RenderStill implements StillRenderer.
func (m Mermaid) RenderStill(ctx context.Context, source, out string) error {
	input, err := writeTempInput("technify-*.mmd", source)
	if err != nil {
		return err
	}
	defer os.Remove(input)

	config, err := writeTempInput("technify-mmdc-*.json", mermaidConfig)
	if err != nil {
		return err
	}
	defer os.Remove(config)

	return writeAtomic("mmdc", out, func(tmp string) error {
		_, err := runner(m.Runner).Run(ctx, proc.Command{
			Name: orDefault(m.Binary, "mmdc"),
			Args: []string{
				"-i", input,
				"-o", tmp,
				"--backgroundColor", orDefault(m.Background, "white"),
				"--width", strconv.Itoa(orDefaultInt(m.Width, 3840)),
				"--configFile", config,
			},
			Timeout: orDefaultDuration(m.Timeout, DefaultStillTimeout),
		})
		return err
	})
}

// =============================================================================
// D2
// =============================================================================

// D2 renders d2 source with the d2 CLI (https://d2lang.com).
type D2 struct {
	Binary  string        // default "d2"
	Runner  proc.Runner   // default proc.Exec
	Timeout time.Duration // default DefaultStillTimeout
}

// RenderStill implements StillRenderer. The empty --target renders only
// the root board, so reserved keywords in the source never produce a
// directory of boards instead of one file.
func (d D2) RenderStill(ctx context.Context, source, out string) error {
	input, err := writeTempInput("technify-*.d2", source)
	if err != nil {
		return err
	}
	defer os.Remove(input)

	return writeAtomic("d2", out, func(tmp string) error {
		_, err := runner(d.Runner).Run(ctx, proc.Command{
			Name:    orDefault(d.Binary, "d2"),
			Args:    []string{"--pad", "40", "--scale", "4", "--target", "", input, tmp},
			Timeout: orDefaultDuration(d.Timeout, DefaultStillTimeout),
		})
		return err
	})
}

// =============================================================================
// Helpers
// =============================================================================

func runner(r proc.Runner) proc.Runner {
	if r != nil {
		return r
	}
	return proc.Exec
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

func orDefaultInt(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}

func orDefaultDuration(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
