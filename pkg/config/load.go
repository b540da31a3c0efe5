package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/technify/pkg/cache"
	"github.com/matzehuels/technify/pkg/errors"
)

// Environment variables that override the file.
const (
	EnvMode        = "TECHNIFY_MODE"
	EnvConcurrency = "TECHNIFY_CONCURRENCY"
	EnvUseCache    = "TECHNIFY_USE_CACHE"
	EnvFFmpeg      = "TECHNIFY_FFMPEG"
	EnvFFprobe     = "TECHNIFY_FFPROBE"
	EnvRedisURL    = "TECHNIFY_REDIS_URL"
)

// Load reads the configuration. An explicit path must exist; otherwise
// the lookup order documented on the package is used and a missing file
// yields the defaults. Environment overrides are applied and the result
// is validated.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()
	file, err := resolve(path)
	if err != nil {
		return nil, err
	}
	if file != "" {
		if err := cfg.decodeFile(file); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}
	if err := c.decode(data); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	c.Path = path
	return nil
}

func (c *Config) decode(data []byte) error {
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// resolve returns the config file to read, or "" when there is none.
func resolve(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", explicit)
		}
		return explicit, nil
	}
	for _, candidate := range SearchPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// SearchPaths lists the implicit config locations in lookup order.
func SearchPaths() []string {
	paths := []string{FileName}
	if dir := userConfigDir(); dir != "" {
		paths = append(paths, filepath.Join(dir, "technify", "config.toml"))
	}
	return paths
}

func userConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config")
	}
	return ""
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "load %s", path)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables read through
// lookup. Malformed numbers and booleans are errors.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvMode, &c.Compose.Mode)
	str(EnvFFmpeg, &c.Tools.FFmpeg)
	str(EnvFFprobe, &c.Tools.FFprobe)
	if v, ok := lookup(EnvRedisURL); ok && v != "" {
		c.Cache.RedisURL = v
		c.Cache.Backend = cache.BackendRedis
	}

	if v, ok := lookup(EnvConcurrency); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "%s: not an integer: %q", EnvConcurrency, v)
		}
		c.Render.Concurrency = n
	}
	if v, ok := lookup(EnvUseCache); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "%s: not a boolean: %q", EnvUseCache, v)
		}
		c.Render.UseCache = b
	}
	return nil
}
