// Package vcs clones repositories and inspects their history.
//
// The miner and the provenance resolver only depend on the [Client]
// interface; [GitClient] implements it with go-git, so no git binary is
// required. Checkouts are kept under a single directory, one per
// repository, and reused across runs.
package vcs

import "context"

// Client is the git collaborator used by the miner and the resolver.
type Client interface {
	// Clone makes a local checkout of url and returns its directory. An
	// existing checkout is reused.
	Clone(ctx context.Context, url string) (string, error)

	// Checkout moves the worktree in dir to the commit tagged tag.
	Checkout(ctx context.Context, dir, tag string) error

	// Tags lists the tag names of the repository in dir, sorted.
	Tags(ctx context.Context, dir string) ([]string, error)

	// RootHashes lists the hashes of the parentless commits reachable from
	// HEAD, sorted.
	RootHashes(ctx context.Context, dir string) ([]string, error)
}
