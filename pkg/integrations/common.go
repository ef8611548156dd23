package integrations

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a forge resource doesn't exist.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, non-2xx responses).
	ErrNetwork = errors.New("network error")
)

// Lister enumerates the clone URLs of the repositories known to a forge.
// URLs are returned in the order the forge reports them and may repeat.
type Lister interface {
	ListRepositories(ctx context.Context) ([]string, error)
}

// ListerFunc adapts a plain function to the [Lister] interface.
type ListerFunc func(ctx context.Context) ([]string, error)

// ListRepositories calls f(ctx).
func (f ListerFunc) ListRepositories(ctx context.Context) ([]string, error) { return f(ctx) }

// NewHTTPClient creates an HTTP client with a standard timeout for forge API requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

var repoURLReplacer = strings.NewReplacer(
	"git@github.com:", "https://github.com/",
	"git://github.com/", "https://github.com/",
	"http://", "https://",
)

// NormalizeRepoURL converts a forge-reported repository URL to the
// https://host/path.git form used for project identifiers.
// Returns empty string if raw is empty.
func NormalizeRepoURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "git+")
	s = repoURLReplacer.Replace(s)
	s = strings.TrimSuffix(s, "/")
	if !strings.HasSuffix(s, ".git") {
		s += ".git"
	}
	return s
}

// NextPageURL extracts the rel="next" target from an RFC 8288 Link header,
// as sent by the GitLab and GitHub APIs. It reports false when the header
// is empty or has no next link.
func NextPageURL(link string) (string, bool) {
	for _, entry := range strings.Split(link, ",") {
		target, params, ok := strings.Cut(entry, ";")
		if !ok || !strings.Contains(params, `rel="next"`) {
			continue
		}
		target = strings.TrimSpace(target)
		target = strings.TrimPrefix(target, "<")
		target = strings.TrimSuffix(target, ">")
		if target != "" {
			return target, true
		}
	}
	return "", false
}

// DumpKey derives the discovery-dump key of a forge host, replacing dots
// with underscores: gitlab.gnome.org becomes gitlab_gnome_org.
func DumpKey(host string) string {
	return strings.ReplaceAll(host, ".", "_")
}
