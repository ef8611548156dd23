package provenance

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flatmine/pkg/fetch"
	"github.com/matzehuels/flatmine/pkg/observability"
	"github.com/matzehuels/flatmine/pkg/vcs"
)

// Reason explains why an archive stayed unresolved.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonMissingVersion  Reason = "missing-version"
	ReasonMissingName     Reason = "missing-name"
	ReasonNoCandidates    Reason = "no-candidates"
	ReasonAmbiguousTag    Reason = "ambiguous-tag"
	ReasonContentMismatch Reason = "content-mismatch"
)

// rank orders the candidate-stage reasons by how far a candidate got.
func (r Reason) rank() int {
	switch r {
	case ReasonAmbiguousTag:
		return 1
	case ReasonContentMismatch:
		return 2
	}
	return 0
}

// ReadmeNames are the files compared between archive and checkout, in order.
var ReadmeNames = []string{"README", "README.md", "README.txt"}

// Result is the outcome of resolving one archive URL.
type Result struct {
	ArchiveURL string `json:"archive_url" yaml:"archive-url"`
	GitURL     string `json:"git_url,omitempty" yaml:"git-url,omitempty"`

	// Strategy names the forge rewrite of an exact match. It is empty for
	// inferred matches.
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`

	// Tag is the tag whose README matched, for inferred matches.
	Tag string `json:"tag,omitempty" yaml:"tag,omitempty"`

	Reason Reason `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Resolved reports whether a git URL was found.
func (r Result) Resolved() bool { return r.GitURL != "" }

// Exact reports whether the git URL came from a forge rewrite.
func (r Result) Exact() bool { return r.Resolved() && r.Strategy != "" }

// Resolver maps archive URLs to git URLs. It is not safe for concurrent use.
type Resolver struct {
	vcs        vcs.Client
	fetcher    fetch.Fetcher
	candidates []string
	strategies []Strategy
	logger     *log.Logger
}

// Option configures a [Resolver].
type Option func(*Resolver)

// WithLogger sets the logger. The default is [log.Default].
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithStrategies replaces [DefaultStrategies].
func WithStrategies(s []Strategy) Option {
	return func(r *Resolver) { r.strategies = s }
}

// New creates a resolver inferring from candidates, the git URLs observed
// so far. Only https candidates are kept; they are tried in sorted order.
func New(client vcs.Client, fetcher fetch.Fetcher, candidates []string, opts ...Option) *Resolver {
	var kept []string
	for _, c := range candidates {
		if strings.HasPrefix(c, "https://") {
			kept = append(kept, c)
		}
	}
	slices.Sort(kept)
	r := &Resolver{
		vcs:        client,
		fetcher:    fetcher,
		candidates: slices.Compact(kept),
		strategies: DefaultStrategies,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps archiveURL to a git URL. An unresolved archive is not an
// error; err is only set when ctx is cancelled.
func (r *Resolver) Resolve(ctx context.Context, archiveURL string) (res Result, err error) {
	hooks := observability.Resolver()
	start := time.Now()
	hooks.OnResolveStart(ctx, archiveURL)
	defer func() {
		hooks.OnResolveComplete(ctx, archiveURL, res.GitURL, string(res.Reason), time.Since(start))
	}()

	res = Result{ArchiveURL: archiveURL}
	for _, s := range r.strategies {
		if gitURL, ok := s.Match(archiveURL); ok {
			res.GitURL, res.Strategy = gitURL, s.Name
			return res, nil
		}
	}

	version, ok := VersionToken(archiveURL)
	if !ok {
		res.Reason = ReasonMissingVersion
		return res, nil
	}
	name, ok := NameToken(archiveURL)
	if !ok {
		res.Reason = ReasonMissingName
		return res, nil
	}

	candidates := r.candidatesFor(name)
	res.Reason = ReasonNoCandidates
	if len(candidates) == 0 {
		r.logger.Debug("no candidate repositories", "archive", archiveURL, "name", name)
		return res, nil
	}

	archive := &lazyArchive{url: archiveURL, fetcher: r.fetcher}
	for _, gitURL := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		tag, reason, ok := r.tryCandidate(ctx, gitURL, version, archive)
		if ok {
			res.GitURL, res.Tag, res.Reason = gitURL, tag, ReasonNone
			r.logger.Info("inferred git url", "archive", archiveURL, "git", gitURL, "tag", tag)
			return res, nil
		}
		if reason.rank() > res.Reason.rank() {
			res.Reason = reason
		}
		if archive.err != nil {
			r.logger.Warn("could not fetch archive", "archive", archiveURL, "err", archive.err)
			return res, nil
		}
	}
	return res, nil
}

// candidatesFor returns the candidates whose URL contains name, ignoring case.
func (r *Resolver) candidatesFor(name string) []string {
	name = strings.ToLower(name)
	var out []string
	for _, c := range r.candidates {
		if strings.Contains(strings.ToLower(c), name) {
			out = append(out, c)
		}
	}
	return out
}

// tryCandidate checks out the single tag of gitURL containing version and
// compares its README with the archive's. It returns the stage the
// candidate failed at; clone and tag-listing failures reach no stage.
func (r *Resolver) tryCandidate(ctx context.Context, gitURL, version string, archive *lazyArchive) (string, Reason, bool) {
	dir, err := r.vcs.Clone(ctx, gitURL)
	if err != nil {
		r.logger.Warn("could not clone candidate", "git", gitURL, "err", err)
		return "", ReasonNone, false
	}
	tags, err := r.vcs.Tags(ctx, dir)
	if err != nil {
		r.logger.Warn("could not list tags", "git", gitURL, "err", err)
		return "", ReasonNone, false
	}

	var matching []string
	for _, t := range tags {
		if strings.Contains(t, version) {
			matching = append(matching, t)
		}
	}
	if len(matching) != 1 {
		r.logger.Debug("no single tag for version", "git", gitURL, "version", version, "tags", matching)
		return "", ReasonAmbiguousTag, false
	}
	tag := matching[0]
	if err := r.vcs.Checkout(ctx, dir, tag); err != nil {
		r.logger.Warn("could not check out tag", "git", gitURL, "tag", tag, "err", err)
		return "", ReasonAmbiguousTag, false
	}

	archiveDir, err := archive.dir(ctx)
	if err != nil {
		return "", ReasonContentMismatch, false
	}
	if name, ok := sameReadme(archiveDir, dir); ok {
		r.logger.Debug("readme matches", "git", gitURL, "tag", tag, "file", name)
		return tag, ReasonNone, true
	}
	return "", ReasonContentMismatch, false
}

// sameReadme compares the first README present in both trees. Names
// present in only one tree are skipped.
func sameReadme(archiveDir, checkoutDir string) (string, bool) {
	for _, name := range ReadmeNames {
		a, err := readRegular(filepath.Join(archiveDir, name))
		if err != nil {
			continue
		}
		b, err := readRegular(filepath.Join(checkoutDir, name))
		if err != nil {
			continue
		}
		if bytes.Equal(a, b) {
			return name, true
		}
	}
	return "", false
}

func readRegular(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(path)
}

// lazyArchive fetches and extracts the archive on first use only.
type lazyArchive struct {
	url     string
	fetcher fetch.Fetcher
	fetched bool
	path    string
	err     error
}

func (a *lazyArchive) dir(ctx context.Context) (string, error) {
	if !a.fetched {
		a.fetched = true
		a.path, a.err = a.fetcher.FetchArchive(ctx, a.url)
	}
	return a.path, a.err
}
