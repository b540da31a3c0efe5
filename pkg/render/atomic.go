package render

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/technify/pkg/errors"
)

// tempSibling returns a unique hidden path next to out with the same
// extension, so tools that infer the format from the name still work.
func tempSibling(out string) string {
	dir, base := filepath.Split(out)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, "."+stem+"-"+uuid.NewString()+ext)
}

// writeAtomic runs produce against a temporary sibling of out and renames
// the result into place. The temporary file is removed on every failure
// path. A zero-exit producer that leaves no file is a TOOL_FAILED error.
func writeAtomic(tool, out string, produce func(tmp string) error) error {
	if err := errors.ValidateOutputPath(out); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory")
	}

	tmp := tempSibling(out)
	defer os.Remove(tmp)

	if err := produce(tmp); err != nil {
		return err
	}
	if info, err := os.Stat(tmp); err != nil || info.Size() == 0 {
		return errors.New(errors.ErrCodeToolFailed, "%s exited 0 but produced no output file", tool)
	}
	if err := os.Rename(tmp, out); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "move %s into place", filepath.Base(out))
	}
	return nil
}

// writeTempInput writes content to a new file in the system temp directory
// and returns its path. The caller removes it.
func writeTempInput(pattern, content string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create temp input")
	}
	name := f.Name()
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(name)
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write temp input")
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write temp input")
	}
	return name, nil
}
