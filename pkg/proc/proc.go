package proc

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/technify/pkg/errors"
	"github.com/matzehuels/technify/pkg/observability"
)

// Command describes one external process invocation.
type Command struct {
	Name    string        // Binary name or path
	Args    []string      // Arguments, without the binary
	Dir     string        // Working directory; empty means the current one
	Stdin   io.Reader     // Optional standard input
	Timeout time.Duration // Zero means no deadline beyond ctx
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Command) (Result, error)

// Run calls f(ctx, cmd).
func (f RunnerFunc) Run(ctx context.Context, cmd Command) (Result, error) {
	return f(ctx, cmd)
}

// RunError is the cause attached to TOOL_FAILED and TIMEOUT errors.
type RunError struct {
	Name   string
	Stderr string
	Err    error
}

func (e *RunError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Name, e.Err, e.Stderr)
}

func (e *RunError) Unwrap() error { return e.Err }

// StderrOf returns the captured diagnostic text of a failed run, if any.
func StderrOf(err error) string {
	var re *RunError
	if stderrors.As(err, &re) {
		return re.Stderr
	}
	return ""
}

// IsFailure reports whether err is a nonzero exit or a timeout.
func IsFailure(err error) bool { return errors.IsToolFailure(err) }

// IsUnavailable reports whether err means the binary could not be found.
func IsUnavailable(err error) bool { return errors.Is(err, errors.ErrCodeToolUnavailable) }

// waitDelay bounds how long Run waits for output pipes to close after the
// process has been killed. Descendants that survive the kill and hold the
// pipes open are abandoned after this delay.
const waitDelay = 2 * time.Second

// Exec is the default Runner backed by os/exec.
var Exec Runner = execRunner{}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, c Command) (Result, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	path, err := Lookup(c.Name)
	if err != nil {
		return Result{}, err
	}

	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	killGroupOnCancel(cmd)
	cmd.WaitDelay = waitDelay

	name := filepath.Base(c.Name)
	observability.Process().OnProcessStart(ctx, name)
	start := time.Now()
	err = cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), Duration: time.Since(start)}
	if err != nil {
		err = classify(ctx, c, err, stderr.String())
	}
	observability.Process().OnProcessComplete(ctx, name, res.Duration, err)
	return res, err
}

func classify(ctx context.Context, c Command, err error, stderr string) error {
	name := filepath.Base(c.Name)
	switch {
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeTimeout, &RunError{Name: name, Stderr: stderr, Err: ctx.Err()},
			"%s timed out after %s", name, c.Timeout)
	case stderrors.Is(err, exec.ErrNotFound), stderrors.Is(err, fs.ErrNotExist):
		return errors.Wrap(errors.ErrCodeToolUnavailable, err, "%s not found", name)
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return errors.Wrap(errors.ErrCodeToolFailed, &RunError{Name: name, Stderr: stderr, Err: err},
			"%s exited with status %d", name, exitErr.ExitCode())
	}
	return errors.Wrap(errors.ErrCodeToolFailed, &RunError{Name: name, Stderr: stderr, Err: err}, "%s failed", name)
}

// extraSearchDirs are consulted after PATH.
var extraSearchDirs = []string{"/opt/homebrew/bin", "/usr/local/bin"}

// Lookup resolves a binary name to an executable path. Names containing a
// path separator are checked directly. Otherwise PATH is searched first,
// then a few well-known install prefixes.
func Lookup(name string) (string, error) {
	if name == "" {
		return "", errors.New(errors.ErrCodeToolUnavailable, "empty binary name")
	}
	if strings.ContainsRune(name, os.PathSeparator) {
		if isExecutable(name) {
			return name, nil
		}
		return "", errors.New(errors.ErrCodeToolUnavailable, "%s not found", name)
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	for _, dir := range extraSearchDirs {
		p := filepath.Join(dir, name)
		if isExecutable(p) {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeToolUnavailable, "%s not found in PATH", name)
}

// Available reports whether Lookup would succeed.
func Available(name string) bool {
	_, err := Lookup(name)
	return err == nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode()&0111 != 0
}
