package cache

import "time"

// ScopedKeyer wraps a Keyer with a prefix. A shared Redis instance is
// partitioned per project this way.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "technify:talks:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ProbeKey generates a prefixed key for media metadata caching.
func (k *ScopedKeyer) ProbeKey(path string, size int64, modTime time.Time) string {
	return k.prefix + k.inner.ProbeKey(path, size, modTime)
}
