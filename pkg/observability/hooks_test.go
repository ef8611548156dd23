package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Miner hooks
	m := NoopMinerHooks{}
	m.OnRoundStart(ctx, 1, 10)
	m.OnRoundComplete(ctx, 1, 3, time.Second)
	m.OnRepositoryMined(ctx, "https://github.com/louib/fpm.git", time.Second, nil)

	// Resolver hooks
	r := NoopResolverHooks{}
	r.OnResolveStart(ctx, "https://github.com/sass/libsass/archive/3.6.4.tar.gz")
	r.OnResolveComplete(ctx, "https://github.com/sass/libsass/archive/3.6.4.tar.gz", "https://github.com/sass/libsass.git", "", time.Second)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "flathub")
	c.OnCacheMiss(ctx, "gitlab_gnome_org")
	c.OnCacheSet(ctx, "flathub", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "gitlab.gnome.org", "/api/v4/projects")
	h.OnResponse(ctx, "GET", "gitlab.gnome.org", "/api/v4/projects", 200, time.Second)
	h.OnError(ctx, "GET", "gitlab.gnome.org", "/api/v4/projects", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Miner().(NoopMinerHooks); !ok {
		t.Error("Miner() should return NoopMinerHooks by default")
	}
	if _, ok := Resolver().(NoopResolverHooks); !ok {
		t.Error("Resolver() should return NoopResolverHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customMiner := &testMinerHooks{}
	SetMinerHooks(customMiner)
	if Miner() != customMiner {
		t.Error("SetMinerHooks should set custom hooks")
	}

	customResolver := &testResolverHooks{}
	SetResolverHooks(customResolver)
	if Resolver() != customResolver {
		t.Error("SetResolverHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Miner().(NoopMinerHooks); !ok {
		t.Error("Reset() should restore NoopMinerHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testMinerHooks{}
	SetMinerHooks(custom)

	// Setting nil should be ignored
	SetMinerHooks(nil)

	if Miner() != custom {
		t.Error("SetMinerHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testMinerHooks struct{ NoopMinerHooks }
type testResolverHooks struct{ NoopResolverHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
