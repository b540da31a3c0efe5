// Package deps reports which external tools technify can find.
//
// ffmpeg and ffprobe are required for any composition. The diagram
// renderers are optional: a missing renderer only disables its dialect or,
// for the animation toolchain, degrades diagrams to static stills.
package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/technify/pkg/config"
	"github.com/matzehuels/technify/pkg/proc"
)

// Requirement defines an external dependency technify relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string // resolved executable, when available
	Detail      string
}

// Requirements lists the tools named by the configuration.
func Requirements(t config.Tools) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: t.FFmpeg, Description: "Clip conversion and composition"},
		{Name: "FFprobe", Command: t.FFprobe, Description: "Media inspection"},
		{Name: "Mermaid CLI", Command: t.Mmdc, Description: "mermaid diagrams", Optional: true},
		{Name: "D2", Command: t.D2, Description: "d2 diagrams", Optional: true},
		{Name: "npm", Command: t.NPM, Description: "Animated slides (Remotion)", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := proc.Lookup(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// CheckRemotionProject reports whether dir holds a Remotion project. The
// project's node_modules are installed on first use, so their absence is
// only noted.
func CheckRemotionProject(dir string) Status {
	status := Status{
		Name:        "Remotion project",
		Command:     dir,
		Description: "Animation templates",
		Optional:    true,
	}
	if strings.TrimSpace(dir) == "" {
		status.Detail = "remotion_dir not configured"
		return status
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err != nil {
		status.Detail = fmt.Sprintf("no package.json in %s", dir)
		return status
	}
	status.Available = true
	status.Path = dir
	if _, err := os.Stat(filepath.Join(dir, "node_modules")); err != nil {
		status.Detail = "dependencies will be installed on first render"
	}
	return status
}

// MissingRequired returns the statuses of required tools that are not available.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Optional && !s.Available {
			missing = append(missing, s)
		}
	}
	return missing
}
