package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flatmine/pkg/observability"
)

// logHooks reports pipeline events at debug level. Round boundaries are
// already logged by the miner itself.
type logHooks struct {
	observability.NoopMinerHooks
	logger *log.Logger
}

// registerHooks routes observability events to logger.
func registerHooks(logger *log.Logger) {
	h := &logHooks{logger: logger}
	observability.SetMinerHooks(h)
	observability.SetResolverHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *logHooks) OnRepositoryMined(_ context.Context, url string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("repository failed", "url", url, "took", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("repository mined", "url", url, "took", d.Round(time.Millisecond))
}

func (h *logHooks) OnResolveStart(_ context.Context, archiveURL string) {
	h.logger.Debug("resolving", "url", archiveURL)
}

func (h *logHooks) OnResolveComplete(_ context.Context, archiveURL, gitURL, reason string, d time.Duration) {
	h.logger.Debug("resolved", "url", archiveURL, "git", gitURL, "reason", reason, "took", d.Round(time.Millisecond))
}

func (h *logHooks) OnCacheHit(_ context.Context, key string) {
	h.logger.Debug("dump hit", "key", key)
}

func (h *logHooks) OnCacheMiss(_ context.Context, key string) {
	h.logger.Debug("dump miss", "key", key)
}

func (h *logHooks) OnCacheSet(_ context.Context, key string, size int) {
	h.logger.Debug("dump saved", "key", key, "repositories", size)
}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "host", host, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("request failed", "method", method, "host", host, "path", path, "err", err)
}
