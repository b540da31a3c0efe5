package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/technify/pkg/artifact"
	"github.com/matzehuels/technify/pkg/errors"
	"github.com/matzehuels/technify/pkg/proc"
)

// Templates maps slide types to Remotion composition IDs.
var Templates = map[artifact.SlideType]string{
	artifact.SlideFlowchart: "FlowchartAnimation",
	artifact.SlideBullets:   "BulletSlide",
	artifact.SlideCode:      "CodeSlide",
}

// Remotion renders structured payloads with a Remotion project.
//
// Dir must contain the project (package.json and src/index.ts). Its npm
// dependencies are installed on first use; a successful install is
// remembered for the lifetime of the Remotion value, a failed one is retried
// on the next call.
type Remotion struct {
	Dir            string        // project directory
	NPM            string        // default "npm"
	Runner         proc.Runner   // default proc.Exec
	Concurrency    int           // remotion --concurrency, default 4
	InstallTimeout time.Duration // default DefaultInstallTimeout
	RenderTimeout  time.Duration // default DefaultAnimateTimeout
	Logger         *log.Logger

	mu    sync.Mutex
	ready bool
}

// Supports implements Animator.
func (r *Remotion) Supports(t artifact.SlideType) bool {
	_, ok := Templates[t]
	return ok
}

// Animate implements Animator.
func (r *Remotion) Animate(ctx context.Context, s artifact.Structured, duration float64, out string) error {
	template, ok := Templates[s.Type]
	if !ok {
		return errors.New(errors.ErrCodeUnsupported, "no animation template for slide type %q", s.Type)
	}
	if err := r.ensureDeps(ctx); err != nil {
		return err
	}

	bin := filepath.Join(r.Dir, "node_modules", ".bin", "remotion")
	if _, err := os.Stat(bin); err != nil {
		return errors.New(errors.ErrCodeToolUnavailable, "remotion binary not found after npm install")
	}

	props, err := Props(s, duration)
	if err != nil {
		return err
	}
	propsFile, err := r.writeProps(props)
	if err != nil {
		return err
	}
	defer os.Remove(propsFile)

	absOut, err := filepath.Abs(out)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", out)
	}
	return writeAtomic("remotion", absOut, func(tmp string) error {
		_, err := runner(r.Runner).Run(ctx, proc.Command{
			Name: bin,
			Args: []string{
				"render", "src/index.ts", template, tmp,
				"--props=" + propsFile,
				"--log=error",
				"--concurrency=" + strconv.Itoa(orDefaultInt(r.Concurrency, 4)),
			},
			Dir:     r.Dir,
			Timeout: orDefaultDuration(r.RenderTimeout, DefaultAnimateTimeout),
		})
		return err
	})
}

// ensureDeps installs the project's npm dependencies once.
func (r *Remotion) ensureDeps(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}

	if r.Dir == "" {
		return errors.New(errors.ErrCodeToolUnavailable, "no remotion project configured")
	}
	if _, err := os.Stat(filepath.Join(r.Dir, "package.json")); err != nil {
		return errors.Wrap(errors.ErrCodeToolUnavailable, err, "remotion project missing at %s", r.Dir)
	}
	if _, err := os.Stat(filepath.Join(r.Dir, "node_modules")); err == nil {
		r.ready = true
		return nil
	}

	r.logger().Info("installing remotion dependencies", "dir", r.Dir)
	_, err := runner(r.Runner).Run(ctx, proc.Command{
		Name:    orDefault(r.NPM, "npm"),
		Args:    []string{"install", "--prefer-offline", "--no-audit", "--no-fund"},
		Dir:     r.Dir,
		Timeout: orDefaultDuration(r.InstallTimeout, DefaultInstallTimeout),
	})
	if err != nil {
		return err
	}
	r.ready = true
	return nil
}

func (r *Remotion) writeProps(props []byte) (string, error) {
	f, err := os.CreateTemp(r.Dir, "props-*.json")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create props file")
	}
	name := f.Name()
	_, werr := f.Write(props)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(name)
		return "", errors.New(errors.ErrCodeInternal, "write props file: %v", firstErr(werr, cerr))
	}
	return name, nil
}

func (r *Remotion) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.NewWithOptions(io.Discard, log.Options{})
}

// Props serialises the payload selected by s.Type together with the
// target duration, as the composition templates expect.
func Props(s artifact.Structured, duration float64) ([]byte, error) {
	payload := s.Payload()
	if payload == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty %s payload", s.Type)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var props map[string]any
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	props["durationSeconds"] = duration
	return json.Marshal(props)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
