package miner

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flatmine/pkg/catalog"
	"github.com/matzehuels/flatmine/pkg/errors"
	"github.com/matzehuels/flatmine/pkg/manifest"
	"github.com/matzehuels/flatmine/pkg/observability"
	"github.com/matzehuels/flatmine/pkg/project"
	"github.com/matzehuels/flatmine/pkg/vcs"
)

// SourceManifestReference tags repositories discovered through a module
// source URL of another repository's manifest.
const SourceManifestReference = "manifest-reference"

// DefaultDenyList holds URL substrings of repositories that are never
// mined: they are too large to walk or hang the clone.
var DefaultDenyList = []string{
	"flathub/shared-modules",
	"fastrizwaan/winepak",
	"usrbinkat/ocp-mini-stack",
	"/ostree",
	"kefqse/origin",
	"CompatibilityTool.Proton",
}

// skippedDirs are never descended into while walking a checkout.
var skippedDirs = map[string]bool{
	".git":             true,
	".flatpak-builder": true,
	".shared-modules":  true,
}

// Target is a repository to mine and the discovery source it came from.
type Target struct {
	URL    string
	Source string
}

// pending is a repository queued for a round together with every source
// that listed it.
type pending struct {
	url     string
	sources []string
}

// Stats summarizes a run.
type Stats struct {
	Rounds    int // rounds processed
	Mined     int // repositories cloned and walked
	Skipped   int // repositories already cataloged for their source
	Failed    int // repositories that could not be cloned
	Manifests int // application manifests parsed
	Modules   int // new module records stored
	Projects  int // projects upserted
}

// Miner runs the round-based crawl. It is not safe for concurrent use.
type Miner struct {
	store    catalog.Store
	vcs      vcs.Client
	logger   *log.Logger
	denyList []string

	// roots maps a root commit hash to the ids of projects recorded with it.
	roots map[string][]string
}

// Option configures a [Miner].
type Option func(*Miner)

// WithLogger sets the logger. The default is [log.Default].
func WithLogger(l *log.Logger) Option {
	return func(m *Miner) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDenyList replaces [DefaultDenyList].
func WithDenyList(list []string) Option {
	return func(m *Miner) { m.denyList = list }
}

// New creates a miner writing to store and cloning through client.
func New(store catalog.Store, client vcs.Client, opts ...Option) *Miner {
	m := &Miner{
		store:    store,
		vcs:      client,
		logger:   log.Default(),
		denyList: DefaultDenyList,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run crawls from targets until a round discovers no new repository. The
// returned Stats are valid even when err is non-nil. err is either the
// context error or an INVALID_IDENTIFIER error for a seed URL.
func (m *Miner) Run(ctx context.Context, targets []Target) (Stats, error) {
	var stats Stats
	m.indexRoots()

	visited := make(map[string]bool)
	worklist := m.seed(targets)
	hooks := observability.Miner()

	for round := 1; len(worklist) > 0; round++ {
		stats.Rounds = round
		start := time.Now()
		hooks.OnRoundStart(ctx, round, len(worklist))
		m.logger.Info("starting round", "round", round, "repositories", len(worklist))

		for _, w := range worklist {
			visited[w.url] = true
		}

		var next []pending
		queued := make(map[string]bool)
		for _, w := range worklist {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			discovered, err := m.visit(ctx, w, &stats)
			if err != nil {
				return stats, err
			}
			for _, u := range discovered {
				if visited[u] || queued[u] || m.denied(u) {
					continue
				}
				queued[u] = true
				next = append(next, pending{url: u, sources: []string{SourceManifestReference}})
			}
		}

		hooks.OnRoundComplete(ctx, round, len(next), time.Since(start))
		m.logger.Info("round complete", "round", round, "discovered", len(next), "duration", time.Since(start).Round(time.Millisecond))
		worklist = next
	}
	return stats, nil
}

// seed drops blank and denied targets and folds targets sharing a URL into
// one entry carrying all of their sources, in first-seen order.
func (m *Miner) seed(targets []Target) []pending {
	index := make(map[string]int)
	denied := make(map[string]bool)
	var out []pending
	for _, t := range targets {
		url := strings.TrimSpace(t.URL)
		if url == "" || denied[url] {
			continue
		}
		if i, ok := index[url]; ok {
			if !slices.Contains(out[i].sources, t.Source) {
				out[i].sources = append(out[i].sources, t.Source)
			}
			continue
		}
		if m.denied(url) {
			denied[url] = true
			m.logger.Info("skipping denied repository", "url", url)
			continue
		}
		index[url] = len(out)
		out = append(out, pending{url: url, sources: []string{t.Source}})
	}
	return out
}

func (m *Miner) denied(url string) bool {
	for _, d := range m.denyList {
		if strings.Contains(url, d) {
			return true
		}
	}
	return false
}

// visit mines one repository unless the catalog already lists it under
// every source it arrived from. Only identifier errors are returned.
func (m *Miner) visit(ctx context.Context, w pending, stats *Stats) ([]string, error) {
	id, err := project.DeriveID(w.url)
	if err != nil {
		return nil, err
	}
	if p, ok := m.store.Project(id); ok && hasAllSources(p, w.sources) {
		m.logger.Debug("already mined", "url", w.url, "sources", w.sources)
		stats.Skipped++
		return nil, nil
	}

	start := time.Now()
	discovered, err := m.mineRepository(ctx, w, stats)
	observability.Miner().OnRepositoryMined(ctx, w.url, time.Since(start), err)
	if err != nil {
		if errors.IsFatal(err) {
			return nil, err
		}
		m.logger.Warn("could not mine repository", "url", w.url, "err", err)
		stats.Failed++
		return nil, nil
	}
	stats.Mined++
	return discovered, nil
}

func hasAllSources(p *project.Project, sources []string) bool {
	for _, src := range sources {
		if !p.HasSource(src) {
			return false
		}
	}
	return true
}

// mineRepository clones w and walks its files. It returns the repository
// URLs referenced by the manifests it found.
func (m *Miner) mineRepository(ctx context.Context, w pending, stats *Stats) ([]string, error) {
	m.logger.Info("mining repository", "url", w.url, "sources", w.sources)

	p, err := project.New(w.url, w.sources[0])
	if err != nil {
		return nil, err
	}
	for _, src := range w.sources[1:] {
		p.AddSource(src)
	}
	if forgeListed(w.sources) {
		p.AddWebURL(strings.TrimSuffix(w.url, ".git"))
	}
	dir, err := m.vcs.Clone(ctx, w.url)
	if err != nil {
		return nil, err
	}

	if hashes, err := m.vcs.RootHashes(ctx, dir); err != nil {
		m.logger.Warn("could not read root commits", "url", w.url, "err", err)
	} else {
		for _, h := range hashes {
			p.AddRootHash(h)
		}
	}

	var discovered []string
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			m.logger.Debug("skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		discovered = append(discovered, m.mineFile(p, path, filepath.ToSlash(rel), stats)...)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	if !p.Interesting() {
		m.logger.Debug("nothing to catalog", "url", w.url)
		return discovered, nil
	}
	if err := m.store.UpsertProject(p); err != nil {
		return nil, err
	}
	stats.Projects++
	m.checkRoots(p)
	return discovered, nil
}

// mineFile records what path contributes to p and returns the repository
// URLs referenced by it when it is an application manifest.
func (m *Miner) mineFile(p *project.Project, path, rel string, stats *Stats) []string {
	if bs, ok := manifest.DetectBuildSystem(path); ok {
		p.AddBuildSystem(bs)
	}

	if manifest.MatchesFilename(path) {
		mf, err := manifest.Load(path)
		if err == nil {
			m.logger.Debug("found manifest", "project", p.ID, "path", rel, "app", mf.Identifier())
			p.AddAppManifest(rel)
			stats.Manifests++
			m.storeModules(mf.ModuleDescriptions(), stats)
			return referencedRepositories(mf)
		}
		if errors.IsRejection(err) {
			m.logger.Debug("not a manifest", "path", rel, "err", err)
		} else {
			m.logger.Warn("could not decode manifest", "path", rel, "err", err)
		}
	}

	if manifest.MatchesExtension(path) {
		d, err := manifest.LoadModule(path)
		if err != nil {
			return nil
		}
		m.logger.Debug("found module", "project", p.ID, "path", rel, "module", d.Name)
		p.AddModuleManifest(rel)
		descs := []*manifest.ModuleDescription{d}
		for _, child := range d.FlattenModules() {
			if child.Description != nil {
				descs = append(descs, child.Description)
			}
		}
		m.storeModules(descs, stats)
	}
	return nil
}

// forgeListed reports whether any of sources is a forge listing. Forges
// serve the repository page at the clone URL without its .git suffix.
func forgeListed(sources []string) bool {
	for _, src := range sources {
		if _, ok := LookupSource(src); ok {
			return true
		}
	}
	return false
}

func (m *Miner) storeModules(descs []*manifest.ModuleDescription, stats *Stats) {
	for _, d := range descs {
		if len(d.Sources) == 0 {
			continue
		}
		hash, created, err := m.store.UpsertModule(d)
		if err != nil {
			m.logger.Warn("could not store module", "module", d.Name, "err", err)
			continue
		}
		if created {
			m.logger.Debug("stored module", "module", d.Name, "hash", hash)
			stats.Modules++
		}
	}
}

// referencedRepositories returns the https .git source URLs of the
// manifest's modules that make valid project identifiers.
func referencedRepositories(mf *manifest.Manifest) []string {
	var urls []string
	for _, u := range mf.AllURLs() {
		if !strings.HasPrefix(u, "https://") || !strings.HasSuffix(u, ".git") {
			continue
		}
		if _, err := project.DeriveID(u); err != nil {
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

func (m *Miner) indexRoots() {
	m.roots = make(map[string][]string)
	for _, p := range m.store.Projects() {
		m.addRoots(p)
	}
}

func (m *Miner) addRoots(p *project.Project) {
	for _, h := range p.RootHashes {
		if !slices.Contains(m.roots[h], p.ID) {
			m.roots[h] = append(m.roots[h], p.ID)
		}
	}
}

// checkRoots warns about stored projects that share a root commit with p.
// They are likely forks or mirrors of one another.
func (m *Miner) checkRoots(p *project.Project) {
	warned := make(map[string]bool)
	for _, h := range p.RootHashes {
		for _, id := range m.roots[h] {
			if id == p.ID || warned[id] {
				continue
			}
			warned[id] = true
			other, ok := m.store.Project(id)
			if !ok {
				continue
			}
			m.logger.Warn("projects share root commits",
				"project", p.ID,
				"other", id,
				"hashes", project.SharedRootHashes(p, other))
		}
	}
	m.addRoots(p)
}
