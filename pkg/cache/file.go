package cache

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/flatmine/pkg/errors"
	"github.com/matzehuels/flatmine/pkg/observability"
)

// dumpExt is the extension of dump files.
const dumpExt = ".txt"

// FileCache keeps each dump as <dir>/<key>.txt, one URL per line.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-based cache in the given directory.
// The directory will be created if it doesn't exist.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create dump directory %s", dir)
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the directory holding the dump files.
func (c *FileCache) Dir() string { return c.dir }

// Location returns the dump directory.
func (c *FileCache) Location() string { return c.dir }

// Get reads a dump. Blank lines are dropped.
func (c *FileCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	path, err := c.path(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	observability.Cache().OnCacheHit(ctx, key)
	return splitLines(string(data)), true, nil
}

// Set writes a dump, replacing any previous content.
func (c *FileCache) Set(ctx context.Context, key string, urls []string) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, key, len(urls))
	return nil
}

// Delete removes a dump.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Keys returns the keys of all stored dumps, sorted.
func (c *FileCache) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), dumpExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), dumpExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

func (c *FileCache) path(key string) (string, error) {
	if err := errors.ValidateDumpKey(key); err != nil {
		return "", err
	}
	return filepath.Join(c.dir, key+dumpExt), nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Ensure FileCache implements Store.
var _ Store = (*FileCache)(nil)
