// Package cache memoizes discovery dumps: the repository URL lists that
// forge listings return, keyed by discovery source.
//
// Listing a forge is slow and rate limited, so a source is listed once and
// its result kept as a plain text file, one URL per line. Later runs read
// the dump instead of asking the forge again. Dumps never expire on their
// own; they are removed with `flatmine cache clear` or refreshed with
// `flatmine mine --no-cache`.
//
// Keys are plain file name stems such as "flathub" or "gitlab_gnome_org"
// and are checked with [errors.ValidateDumpKey] before they touch the
// filesystem.
//
// [errors.ValidateDumpKey]: github.com/matzehuels/flatmine/pkg/errors.ValidateDumpKey
package cache

import "context"

// Cache stores and retrieves discovery dumps.
type Cache interface {
	// Get returns the URLs stored under key. The boolean is false on a miss.
	Get(ctx context.Context, key string) ([]string, bool, error)

	// Set replaces the URLs stored under key.
	Set(ctx context.Context, key string, urls []string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Store is a Cache that can enumerate its dumps.
type Store interface {
	Cache

	// Keys returns the keys of all stored dumps, sorted.
	Keys(ctx context.Context) ([]string, error)

	// Location describes where the dumps live, for display.
	Location() string
}
