package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "probe:abc", []byte(`{"duration":12.5}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "probe:abc")
	if err != nil || !hit {
		t.Fatalf("Get = hit %v, err %v", hit, err)
	}
	if string(data) != `{"duration":12.5}` {
		t.Errorf("data = %s", data)
	}

	if err := c.Delete(ctx, "probe:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "probe:abc"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "probe:abc"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	fc := c.(*FileCache)

	path := fc.entryPath("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v err %v", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if err := c.(Clearer).Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if _, hit, _ := c.Get(ctx, k); hit {
			t.Errorf("%s survived Clear", k)
		}
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	type probe struct {
		Duration float64 `json:"duration"`
	}
	if err := SetJSON(ctx, c, "k", probe{Duration: 3.5}, 0); err != nil {
		t.Fatal(err)
	}
	var got probe
	hit, err := GetJSON(ctx, c, "k", &got)
	if err != nil || !hit || got.Duration != 3.5 {
		t.Errorf("GetJSON = %+v, %v, %v", got, hit, err)
	}

	_ = c.Set(ctx, "bad", []byte("{"), 0)
	if hit, err := GetJSON(ctx, c, "bad", &got); hit || err != nil {
		t.Errorf("undecodable entry: hit %v err %v", hit, err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"File", Options{Backend: BackendFile, Dir: t.TempDir()}, false},
		{"DefaultFile", Options{Dir: t.TempDir()}, false},
		{"FileNoDir", Options{Backend: BackendFile}, true},
		{"None", Options{Backend: BackendNone}, false},
		{"RedisNoURL", Options{Backend: BackendRedis}, true},
		{"RedisBadURL", Options{Backend: BackendRedis, RedisURL: "http://nope"}, true},
		{"Unknown", Options{Backend: "memcached"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(ctx, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open err = %v, wantErr %v", err, tt.wantErr)
			}
			if c != nil {
				c.Close()
			}
		})
	}
}

func TestDigest(t *testing.T) {
	if digest("hello") != digest("hello") {
		t.Error("digest should be deterministic")
	}
	if digest("ab", "c") == digest("a", "bc") {
		t.Error("field boundaries should change the digest")
	}
	if got := len(digest("x")); got != 64 {
		t.Errorf("digest length = %d, want 64", got)
	}
}

func TestFileCacheKeyMismatchIsMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	fc := c.(*FileCache)

	if err := c.Set(ctx, "a", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	// Move a's document to where b would live.
	if err := os.MkdirAll(filepath.Dir(fc.entryPath("b")), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(fc.entryPath("a"), fc.entryPath("b")); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "b"); hit || err != nil {
		t.Errorf("foreign entry: hit %v err %v", hit, err)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	mod := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	base := k.ProbeKey("talk.mp4", 1024, mod)
	if base != k.ProbeKey("talk.mp4", 1024, mod) {
		t.Error("ProbeKey should be deterministic")
	}
	if base == k.ProbeKey("talk.mp4", 2048, mod) {
		t.Error("size change should change the key")
	}
	if base == k.ProbeKey("talk.mp4", 1024, mod.Add(time.Second)) {
		t.Error("mtime change should change the key")
	}
	if base[:6] != "probe:" {
		t.Errorf("ProbeKey missing prefix: %s", base)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "technify:")
	key := scoped.ProbeKey("a.mp4", 1, time.Time{})
	want := "technify:" + NewDefaultKeyer().ProbeKey("a.mp4", 1, time.Time{})
	if key != want {
		t.Errorf("ScopedKeyer = %s, want %s", key, want)
	}
}

var errRefused = errors.New("connection refused")

func TestPing(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		failFirst int
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, 1, false},
		{"recovers", 2, 3, false},
		{"exhausted", 5, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := ping(ctx, 3, time.Millisecond, func(context.Context) error {
				calls++
				if calls <= tt.failFirst {
					return errRefused
				}
				return nil
			})
			if (err != nil) != tt.wantErr || calls != tt.wantCalls {
				t.Errorf("ping() err %v calls %d, want err %v calls %d", err, calls, tt.wantErr, tt.wantCalls)
			}
			if tt.wantErr && !errors.Is(err, errRefused) {
				t.Errorf("ping() err = %v, want last failure", err)
			}
		})
	}
}

func TestPingContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ping(ctx, 3, time.Hour, func(context.Context) error { return errRefused })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ping() = %v, want context.Canceled", err)
	}
}
