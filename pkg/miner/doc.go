// Package miner crawls git repositories for Flatpak manifests and folds
// what it finds into the catalog.
//
// # Overview
//
// A crawl starts from seed [Target]s, usually enumerated from forges by
// [Discover], and proceeds in rounds:
//
//  1. Every URL of the round is marked visited.
//  2. Each repository is cloned and walked. Build-system marker files,
//     application manifests and standalone module files are recorded on
//     the project; every module description with sources is stored as a
//     module record.
//  3. The https .git URLs referenced by the modules of each manifest
//     become the next round, tagged [SourceManifestReference].
//
// The crawl ends when a round discovers nothing new. Discoveries are
// never injected into the round being processed, so the crawl depth is
// bounded by the depth of manifest references.
//
// # Failure Semantics
//
// A repository that fails to clone is logged and dropped for the rest of
// the run. Files that fail to parse are "not a manifest" and ignored.
// Only a seed URL that cannot be turned into a project identifier stops
// the crawl.
//
// # Forks
//
// Projects are keyed by URL, so a fork and its upstream are distinct
// projects even when they share root commits. The miner logs such
// overlaps but never merges the records.
package miner
