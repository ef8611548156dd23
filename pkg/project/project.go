// Package project defines the catalog's project record and how projects are
// identified and merged.
//
// A project is keyed by an identifier derived from its repository URL, so
// the same repository reached from different discovery sources, or in
// different runs, always lands on the same record:
//
//	id, _ := project.DeriveID("https://github.com/louib/fpm.git")
//	// id == "com.github.louib.fpm"
//
// Records are only ever merged, never replaced or deleted. Set-valued
// fields are unioned and kept sorted; scalar fields keep the first
// non-empty value written.
package project

import (
	"path"
	"slices"
	"strings"

	"github.com/matzehuels/flatmine/pkg/errors"
)

// Project is a catalog entry for one source repository.
type Project struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`

	VCSURLs         []string `yaml:"vcs-urls,omitempty"`
	WebURLs         []string `yaml:"web-urls,omitempty"`
	Sources         []string `yaml:"sources,omitempty"`
	AppManifests    []string `yaml:"app-manifests,omitempty"`
	ModuleManifests []string `yaml:"module-manifests,omitempty"`
	BuildSystems    []string `yaml:"build-systems,omitempty"`
	RootHashes      []string `yaml:"root-hashes,omitempty"`
}

// DeriveID returns the project identifier for a git URL: the host labels
// in reverse order followed by the path segments, joined with dots.
//
// Only https URLs ending in .git are accepted. Anything else is an
// INVALID_IDENTIFIER error.
func DeriveID(url string) (string, error) {
	if !strings.HasPrefix(url, "https://") {
		return "", errors.New(errors.ErrCodeInvalidIdentifier, "project url %q must start with https://", url)
	}
	if !strings.HasSuffix(url, ".git") {
		return "", errors.New(errors.ErrCodeInvalidIdentifier, "project url %q must end with .git", url)
	}

	trimmed := strings.TrimSuffix(strings.TrimPrefix(url, "https://"), ".git")
	host, rest, _ := strings.Cut(trimmed, "/")
	if host == "" {
		return "", errors.New(errors.ErrCodeInvalidIdentifier, "project url %q has no host", url)
	}

	labels := strings.Split(host, ".")
	slices.Reverse(labels)

	segments := labels
	for _, seg := range strings.Split(rest, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == len(labels) {
		return "", errors.New(errors.ErrCodeInvalidIdentifier, "project url %q has no path", url)
	}
	return strings.Join(segments, "."), nil
}

// New creates a project for the repository at url, discovered through
// source. The name defaults to the last path segment of the URL.
func New(url, source string) (*Project, error) {
	id, err := DeriveID(url)
	if err != nil {
		return nil, err
	}
	p := &Project{
		ID:   id,
		Name: path.Base(strings.TrimSuffix(url, ".git")),
	}
	p.AddVCSURL(url)
	p.AddSource(source)
	return p, nil
}

// AddVCSURL records a repository URL.
func (p *Project) AddVCSURL(url string) { p.VCSURLs = insert(p.VCSURLs, url) }

// AddWebURL records a homepage or web URL.
func (p *Project) AddWebURL(url string) { p.WebURLs = insert(p.WebURLs, url) }

// AddSource records the discovery source tag that led to the project.
func (p *Project) AddSource(tag string) { p.Sources = insert(p.Sources, tag) }

// AddAppManifest records the repository-relative path of an application manifest.
func (p *Project) AddAppManifest(rel string) { p.AppManifests = insert(p.AppManifests, rel) }

// AddModuleManifest records the repository-relative path of a standalone module file.
func (p *Project) AddModuleManifest(rel string) { p.ModuleManifests = insert(p.ModuleManifests, rel) }

// AddBuildSystem records a build system detected in the repository.
func (p *Project) AddBuildSystem(name string) { p.BuildSystems = insert(p.BuildSystems, name) }

// AddRootHash records the hash of a root (parentless) commit.
func (p *Project) AddRootHash(hash string) { p.RootHashes = insert(p.RootHashes, hash) }

// HasSource reports whether the project was already seen through tag.
func (p *Project) HasSource(tag string) bool {
	_, found := slices.BinarySearch(p.Sources, tag)
	return found
}

// SupportsFlatpak reports whether the repository holds an application manifest.
func (p *Project) SupportsFlatpak() bool {
	return len(p.AppManifests) > 0
}

// Interesting reports whether mining found anything worth keeping: an
// application manifest, a module file or a recognized build system.
func (p *Project) Interesting() bool {
	return len(p.AppManifests) > 0 || len(p.ModuleManifests) > 0 || len(p.BuildSystems) > 0
}

// Merge folds other into p. Set-valued fields are unioned; Name and
// Description keep the value p already has unless it is empty. Merging the
// same project twice leaves p unchanged after the first time.
func (p *Project) Merge(other *Project) {
	if other == nil {
		return
	}
	if p.Name == "" {
		p.Name = other.Name
	}
	if p.Description == "" {
		p.Description = other.Description
	}
	p.VCSURLs = union(p.VCSURLs, other.VCSURLs)
	p.WebURLs = union(p.WebURLs, other.WebURLs)
	p.Sources = union(p.Sources, other.Sources)
	p.AppManifests = union(p.AppManifests, other.AppManifests)
	p.ModuleManifests = union(p.ModuleManifests, other.ModuleManifests)
	p.BuildSystems = union(p.BuildSystems, other.BuildSystems)
	p.RootHashes = union(p.RootHashes, other.RootHashes)
}

// Normalize sorts and deduplicates every set-valued field. Records read
// from disk are normalized before use.
func (p *Project) Normalize() {
	p.VCSURLs = union(nil, p.VCSURLs)
	p.WebURLs = union(nil, p.WebURLs)
	p.Sources = union(nil, p.Sources)
	p.AppManifests = union(nil, p.AppManifests)
	p.ModuleManifests = union(nil, p.ModuleManifests)
	p.BuildSystems = union(nil, p.BuildSystems)
	p.RootHashes = union(nil, p.RootHashes)
}

// Clone returns a deep copy of p.
func (p *Project) Clone() *Project {
	c := *p
	c.VCSURLs = slices.Clone(p.VCSURLs)
	c.WebURLs = slices.Clone(p.WebURLs)
	c.Sources = slices.Clone(p.Sources)
	c.AppManifests = slices.Clone(p.AppManifests)
	c.ModuleManifests = slices.Clone(p.ModuleManifests)
	c.BuildSystems = slices.Clone(p.BuildSystems)
	c.RootHashes = slices.Clone(p.RootHashes)
	return &c
}

// SharedRootHashes returns the root commit hashes a and b have in common.
// Two distinct projects sharing a root hash are usually forks or mirrors
// of each other.
func SharedRootHashes(a, b *Project) []string {
	var shared []string
	for _, h := range a.RootHashes {
		if _, found := slices.BinarySearch(b.RootHashes, h); found {
			shared = append(shared, h)
		}
	}
	return shared
}

func insert(set []string, v string) []string {
	if v == "" {
		return set
	}
	i, found := slices.BinarySearch(set, v)
	if found {
		return set
	}
	return slices.Insert(set, i, v)
}

func union(a, b []string) []string {
	out := slices.Clone(a)
	for _, v := range b {
		out = insert(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
