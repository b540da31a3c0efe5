package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Keyer generates cache keys.
type Keyer interface {
	// ProbeKey identifies media metadata for one file version.
	ProbeKey(path string, size int64, modTime time.Time) string
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ProbeKey digests the file identity under the "probe" prefix. Any change
// to the size or modification time yields a different key.
func (DefaultKeyer) ProbeKey(path string, size int64, modTime time.Time) string {
	return "probe:" + digest(path, strconv.FormatInt(size, 10), strconv.FormatInt(modTime.UTC().UnixNano(), 10))
}

// digest returns the hex SHA-256 of fields separated by NUL bytes, so
// ("ab", "c") and ("a", "bc") never collide.
func digest(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, "\x00")))
	return hex.EncodeToString(sum[:])
}

var _ Keyer = DefaultKeyer{}
