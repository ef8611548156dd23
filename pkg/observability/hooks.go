// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about mining rounds, provenance resolution, dump cache
// lookups and forge API calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetMinerHooks(&myMinerHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Miner().OnRoundStart(ctx, round, len(targets))
//	// ... mine the round ...
//	observability.Miner().OnRoundComplete(ctx, round, discovered, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Miner Hooks
// =============================================================================

// MinerHooks receives events from the repository miner.
type MinerHooks interface {
	// Round events
	OnRoundStart(ctx context.Context, round, targets int)
	OnRoundComplete(ctx context.Context, round, discovered int, duration time.Duration)

	// OnRepositoryMined records one repository, err is the clone or walk failure if any.
	OnRepositoryMined(ctx context.Context, url string, duration time.Duration, err error)
}

// =============================================================================
// Resolver Hooks
// =============================================================================

// ResolverHooks receives events from the archive provenance resolver.
type ResolverHooks interface {
	OnResolveStart(ctx context.Context, archiveURL string)

	// OnResolveComplete records the outcome: gitURL is empty when the
	// archive stayed unresolved, in which case reason says why.
	OnResolveComplete(ctx context.Context, archiveURL, gitURL, reason string, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from discovery dump lookups.
type CacheHooks interface {
	// OnCacheHit records a dump found for key.
	OnCacheHit(ctx context.Context, key string)

	// OnCacheMiss records a missing dump.
	OnCacheMiss(ctx context.Context, key string)

	// OnCacheSet records a dump write of size URLs.
	OnCacheSet(ctx context.Context, key string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopMinerHooks is a no-op implementation of MinerHooks.
type NoopMinerHooks struct{}

func (NoopMinerHooks) OnRoundStart(context.Context, int, int)                          {}
func (NoopMinerHooks) OnRoundComplete(context.Context, int, int, time.Duration)        {}
func (NoopMinerHooks) OnRepositoryMined(context.Context, string, time.Duration, error) {}

// NoopResolverHooks is a no-op implementation of ResolverHooks.
type NoopResolverHooks struct{}

func (NoopResolverHooks) OnResolveStart(context.Context, string) {}
func (NoopResolverHooks) OnResolveComplete(context.Context, string, string, string, time.Duration) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	minerHooks    MinerHooks    = NoopMinerHooks{}
	resolverHooks ResolverHooks = NoopResolverHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetMinerHooks registers custom miner hooks.
// This should be called once at application startup before mining.
func SetMinerHooks(h MinerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		minerHooks = h
	}
}

// SetResolverHooks registers custom resolver hooks.
func SetResolverHooks(h ResolverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolverHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Miner returns the registered miner hooks.
func Miner() MinerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return minerHooks
}

// Resolver returns the registered resolver hooks.
func Resolver() ResolverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolverHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	minerHooks = NoopMinerHooks{}
	resolverHooks = NoopResolverHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
