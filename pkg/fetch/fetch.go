// Package fetch downloads release archives and unpacks them.
//
// Downloads land in <dir>/archives/<uuid>/<file name> and are extracted
// into <dir>/uncompressed_archives/<uuid>/, dropping the archive's top
// level directory the way flatpak-builder does with strip-components=1.
// Every fetch gets fresh directories, so concurrent or repeated fetches of
// the same URL never collide.
package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/matzehuels/flatmine/pkg/errors"
	"github.com/matzehuels/flatmine/pkg/manifest"
	"github.com/matzehuels/flatmine/pkg/observability"
)

// Subdirectories of the assets directory.
const (
	ArchivesDir             = "archives"
	UncompressedArchivesDir = "uncompressed_archives"
)

// Fetcher retrieves an archive and returns the directory it was unpacked to.
type Fetcher interface {
	FetchArchive(ctx context.Context, url string) (string, error)
}

// HTTPFetcher is a [Fetcher] for http and https URLs.
type HTTPFetcher struct {
	dir    string
	http   *http.Client
	logger *log.Logger
}

// NewHTTPFetcher returns a fetcher storing downloads under dir. Downloads
// have no timeout of their own; cancel the context to abort them.
func NewHTTPFetcher(dir string, logger *log.Logger) *HTTPFetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &HTTPFetcher{dir: dir, http: &http.Client{}, logger: logger}
}

// FetchArchive downloads url and extracts it. The archive type is taken
// from the URL suffix.
func (f *HTTPFetcher) FetchArchive(ctx context.Context, rawURL string) (string, error) {
	kind, ok := manifest.DetectArchiveType(rawURL)
	if !ok {
		return "", errors.New(errors.ErrCodeUnsupported, "cannot tell archive type of %s", rawURL)
	}
	file, err := f.Download(ctx, rawURL)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(f.dir, UncompressedArchivesDir, uuid.NewString())
	if err := Extract(file, kind, dest, 1); err != nil {
		_ = os.RemoveAll(dest)
		return "", err
	}
	return dest, nil
}

// Download saves the body of url to a fresh directory and returns the file path.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (string, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return "", err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "download %s", rawURL)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.ErrCodeNetwork, "download %s: status %d", rawURL, resp.StatusCode)
	}

	dir := filepath.Join(f.dir, ArchivesDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "create download directory")
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = "archive"
	}
	dest := filepath.Join(dir, name)

	out, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dest)
	}
	n, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "download %s", rawURL)
	}

	f.logger.Debug("downloaded archive", "url", rawURL, "size", humanize.Bytes(uint64(n)), "took", time.Since(start).Round(time.Millisecond))
	return dest, nil
}

// Ensure HTTPFetcher implements Fetcher.
var _ Fetcher = (*HTTPFetcher)(nil)
