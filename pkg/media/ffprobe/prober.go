package ffprobe

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/technify/pkg/cache"
	"github.com/matzehuels/technify/pkg/errors"
	"github.com/matzehuels/technify/pkg/observability"
	"github.com/matzehuels/technify/pkg/proc"
)

// DefaultTimeout bounds one ffprobe invocation.
const DefaultTimeout = 30 * time.Second

// Prober inspects media files and caches the resulting Info.
// A zero Prober is usable: it runs "ffprobe" through proc.Exec without a cache.
type Prober struct {
	Runner  proc.Runner
	Binary  string
	Timeout time.Duration
	Cache   cache.Cache
	Keyer   cache.Keyer
	TTL     time.Duration
	Logger  *log.Logger
}

// Probe returns Info for path, consulting the cache first. Cache failures
// are logged and otherwise ignored.
func (p *Prober) Probe(ctx context.Context, path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "probe %s", path)
	}

	var key string
	if p.Cache != nil {
		key = p.keyer().ProbeKey(path, st.Size(), st.ModTime())
		var info Info
		hit, err := cache.GetJSON(ctx, p.Cache, key, &info)
		if err != nil {
			p.logger().Warn("probe cache read failed", "path", path, "error", err)
		}
		if hit {
			observability.Cache().OnCacheHit(ctx, "probe")
			return info, nil
		}
		observability.Cache().OnCacheMiss(ctx, "probe")
	}

	res, err := Inspect(ctx, p.runner(), p.Binary, path, p.timeout())
	if err != nil {
		return Info{}, err
	}
	info, err := res.Info()
	if err != nil {
		return Info{}, err
	}

	if p.Cache != nil {
		if err := cache.SetJSON(ctx, p.Cache, key, info, p.TTL); err != nil {
			p.logger().Warn("probe cache write failed", "path", path, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "probe", 1)
		}
	}
	p.logger().Debug("probed", "path", path, "info", info.String())
	return info, nil
}

// Duration is a convenience wrapper returning only the duration.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	info, err := p.Probe(ctx, path)
	return info.Duration, err
}

func (p *Prober) runner() proc.Runner {
	if p.Runner != nil {
		return p.Runner
	}
	return proc.Exec
}

func (p *Prober) keyer() cache.Keyer {
	if p.Keyer != nil {
		return p.Keyer
	}
	return cache.NewDefaultKeyer()
}

func (p *Prober) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return DefaultTimeout
}

func (p *Prober) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.NewWithOptions(io.Discard, log.Options{})
}
