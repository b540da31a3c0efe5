package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateWindow checks that a time window is usable on a media timeline.
//
// The validation rules are:
//   - Both bounds must be finite numbers
//   - start must not be negative
//   - end must be strictly greater than start
func ValidateWindow(start, end float64) error {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return New(ErrCodeInvalidInput, "window bounds must be finite (got %v..%v)", start, end)
	}
	if start < 0 {
		return New(ErrCodeInvalidInput, "window start cannot be negative (got %.3f)", start)
	}
	if end <= start {
		return New(ErrCodeInvalidInput, "window end must be after start (got %.3f..%.3f)", start, end)
	}
	return nil
}

// ValidateOutputPath validates a file path that technify will write to.
//
// Validation rules:
//   - Path cannot be empty or whitespace
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//   - Must name a file, not a directory (no trailing separator)
func ValidateOutputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "output path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output path contains invalid characters")
		}
	}

	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, "\\") {
		return New(ErrCodeInvalidPath, "output path must name a file, not a directory: %q", path)
	}

	return nil
}

// ValidateConcurrency checks a worker pool width.
func ValidateConcurrency(n int) error {
	if n < 1 {
		return New(ErrCodeInvalidInput, "concurrency must be at least 1 (got %d)", n)
	}
	return nil
}
