// Package listsource turns list source locators into raw list text.
//
// Local files are read directly. Remote lists are fetched and written to a
// per-source cache file, which serves as the fallback when a later fetch fails
// and as the fast path when restoring from cache.
package listsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	logpkg "github.com/haukened/rr-blocklist/internal/dns/common/log"
	"github.com/haukened/rr-blocklist/internal/dns/domain"
)

const (
	errNoCacheDir = "listsource: cache directory is required"
	errNoFetcher  = "listsource: fetcher is required"
)

// Fetcher downloads the body of a remote list. A non-success response is an
// error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Options configures a Resolver.
type Options struct {
	CacheDir string
	Fetcher  Fetcher
	Logger   logpkg.Logger
}

// Resolver resolves sources to list text. It satisfies blocklist.SourceResolver.
type Resolver struct {
	cacheDir string
	fetcher  Fetcher
	logger   logpkg.Logger
}

// New returns a Resolver caching remote lists under opts.CacheDir.
func New(opts Options) (*Resolver, error) {
	if opts.CacheDir == "" {
		return nil, errors.New(errNoCacheDir)
	}
	if opts.Fetcher == nil {
		return nil, errors.New(errNoFetcher)
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNoopLogger()
	}
	return &Resolver{
		cacheDir: opts.CacheDir,
		fetcher:  opts.Fetcher,
		logger:   opts.Logger,
	}, nil
}

// EnsureCacheDir creates the cache directory and any missing parents.
func (r *Resolver) EnsureCacheDir() error {
	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir %s: %w", r.cacheDir, err)
	}
	return nil
}

// CachePath returns the cache file of a remote source. It is empty for local
// files, which are never cached.
func (r *Resolver) CachePath(src domain.Source) string {
	return r.cacheFile(src.CacheFileName())
}

// cacheFile joins name onto the cache directory. A name that would resolve
// anywhere but directly inside it yields "".
func (r *Resolver) cacheFile(name string) string {
	if name == "" {
		return ""
	}
	path := filepath.Join(r.cacheDir, name)
	if filepath.Dir(path) != filepath.Clean(r.cacheDir) {
		return ""
	}
	return path
}

// Resolve returns the text of src, or false when none could be obtained.
//
// For a remote source with restoreFromCache set and an existing cache file,
// the network is not used. Otherwise the list is fetched; when the fetch
// fails the cache file is used if present. Failures are logged, never returned.
func (r *Resolver) Resolve(ctx context.Context, src domain.Source, restoreFromCache bool) (string, bool) {
	if !src.IsRemote() {
		return r.readFile(src)
	}

	path := r.CachePath(src)
	if path == "" {
		r.logger.Error(map[string]any{"url": src.URL(), "name": src.CacheFileName()}, "cache_path_invalid")
	}
	if restoreFromCache && fileExists(path) {
		return r.readCache(src, path)
	}

	r.logger.Info(map[string]any{"url": src.URL()}, "fetch_list")
	body, err := r.fetchAndPersist(ctx, src, path)
	if err == nil {
		return body, true
	}
	r.logger.Error(map[string]any{"url": src.URL(), "error": err}, "fetch_failed")

	if !fileExists(path) {
		return "", false
	}
	return r.readCache(src, path)
}

// fetchAndPersist fetches src and writes the body to path. The fetch outcome
// decides the result; a failed write is only logged. An empty path skips the
// write.
func (r *Resolver) fetchAndPersist(ctx context.Context, src domain.Source, path string) (string, error) {
	body, err := r.fetcher.Fetch(ctx, src.URL())
	if err != nil {
		return "", fmt.Errorf("download %s: %w", src.URL(), err)
	}
	if path == "" {
		return body, nil
	}
	if err := writeFileAtomic(path, []byte(body)); err != nil {
		r.logger.Error(map[string]any{"url": src.URL(), "path": path, "error": err}, "cache_persist_failed")
	}
	return body, nil
}

func (r *Resolver) readFile(src domain.Source) (string, bool) {
	r.logger.Info(map[string]any{"path": src.Path()}, "load_file")
	data, err := os.ReadFile(src.Path())
	if err != nil {
		r.logger.Error(map[string]any{"path": src.Path(), "error": err}, "file_read_failed")
		return "", false
	}
	return string(data), true
}

func (r *Resolver) readCache(src domain.Source, path string) (string, bool) {
	r.logger.Info(map[string]any{"url": src.URL(), "path": path}, "cache_restored")
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Error(map[string]any{"path": path, "error": err}, "cache_read_failed")
		return "", false
	}
	return string(data), true
}

// writeFileAtomic replaces path with data through a temporary file in the same
// directory, so an interrupted write leaves the previous cache intact.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
