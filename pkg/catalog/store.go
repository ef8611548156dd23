// Package catalog persists projects and modules discovered by the miner.
//
// # Layout
//
// A catalog is a directory tree, one YAML file per record:
//
//	<root>/projects/<id>.yaml       project records, keyed by project id
//	<root>/modules/<hash>.yaml      module records, keyed by content hash
//	<root>/repositories/<key>.txt   discovery dumps, see package cache
//
// The whole tree is loaded into memory by [Open]. Every upsert updates the
// in-memory index and writes the record file before returning, so the
// directory is always current. Files that cannot be decoded are logged and
// skipped; they never stop the store from opening.
//
// # Ownership
//
// Only this package writes record files. The miner and the resolver change
// the catalog exclusively through [Store].
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flatmine/pkg/cache"
	"github.com/matzehuels/flatmine/pkg/errors"
	"github.com/matzehuels/flatmine/pkg/manifest"
	"github.com/matzehuels/flatmine/pkg/project"
)

// Subdirectories of the catalog root.
const (
	ModulesDir      = "modules"
	ProjectsDir     = "projects"
	RepositoriesDir = "repositories"
)

// EnvDBPath names the environment variable that overrides the catalog root.
const EnvDBPath = "FLATMINE_DB_PATH"

// Store is the catalog as seen by the miner, the resolver and the CLI.
type Store interface {
	// Project returns a copy of the stored project with the given id.
	Project(id string) (*project.Project, bool)

	// Projects returns copies of all projects, sorted by id.
	Projects() []*project.Project

	// Modules returns all module records, sorted by hash.
	Modules() []*ModuleRecord

	// UpsertProject stores p, merging it into any existing record with the same id.
	UpsertProject(p *project.Project) error

	// UpsertModule stores d under its content hash. created is false when
	// an identical module was already stored.
	UpsertModule(d *manifest.ModuleDescription) (hash string, created bool, err error)

	SearchProjects(term string) []*project.Project
	SearchModules(term string) []*ModuleRecord

	// GitURLs returns every git URL the catalog has observed, sorted.
	GitURLs() []string

	// ArchiveURLs returns every archive URL of stored modules, sorted.
	ArchiveURLs() []string

	Close() error
}

// DirStore is a [Store] backed by a directory tree.
type DirStore struct {
	root     string
	logger   *log.Logger
	projects map[string]*project.Project
	modules  map[string]*ModuleRecord
	dumps    *cache.FileCache
}

// DefaultRoot returns $FLATMINE_DB_PATH, or ~/.flatmine-db when unset.
func DefaultRoot() (string, error) {
	if root := os.Getenv(EnvDBPath); root != "" {
		return root, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve home directory")
	}
	return filepath.Join(home, ".flatmine-db"), nil
}

// Open loads the catalog rooted at root, creating the directory layout if
// needed. A root that cannot be created is an INVALID_PATH error.
func Open(root string, logger *log.Logger) (*DirStore, error) {
	if root == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "catalog root is empty")
	}
	if logger == nil {
		logger = log.Default()
	}
	for _, dir := range []string{ModulesDir, ProjectsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create catalog directory %s", dir)
		}
	}
	dumps, err := cache.NewFileCache(filepath.Join(root, RepositoriesDir))
	if err != nil {
		return nil, err
	}

	s := &DirStore{
		root:     root,
		logger:   logger,
		projects: make(map[string]*project.Project),
		modules:  make(map[string]*ModuleRecord),
		dumps:    dumps,
	}
	if err := s.loadProjects(); err != nil {
		return nil, err
	}
	if err := s.loadModules(); err != nil {
		return nil, err
	}
	logger.Debug("catalog loaded", "root", root, "projects", len(s.projects), "modules", len(s.modules))
	return s, nil
}

// Root returns the catalog root directory.
func (s *DirStore) Root() string { return s.root }

// Dumps returns the discovery-dump cache stored under repositories/.
func (s *DirStore) Dumps() *cache.FileCache { return s.dumps }

func (s *DirStore) Project(id string) (*project.Project, bool) {
	p, ok := s.projects[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

func (s *DirStore) Projects() []*project.Project {
	out := make([]*project.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *DirStore) Modules() []*ModuleRecord {
	out := make([]*ModuleRecord, 0, len(s.modules))
	for _, m := range s.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}

func (s *DirStore) UpsertProject(p *project.Project) error {
	if err := errors.ValidateRecordID(p.ID); err != nil {
		return err
	}

	merged := p.Clone()
	merged.Normalize()
	if existing, ok := s.projects[p.ID]; ok {
		merged = existing.Clone()
		merged.Merge(p)
	}

	if err := writeYAML(filepath.Join(s.root, ProjectsDir, p.ID+".yaml"), merged); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write project %s", p.ID)
	}
	s.projects[p.ID] = merged
	return nil
}

func (s *DirStore) UpsertModule(d *manifest.ModuleDescription) (string, bool, error) {
	hash, err := ModuleHash(d)
	if err != nil {
		return "", false, err
	}
	if _, ok := s.modules[hash]; ok {
		return hash, false, nil
	}

	path := filepath.Join(s.root, ModulesDir, hash+".yaml")
	if _, err := os.Stat(path); err == nil {
		return hash, false, nil
	}

	rec := &ModuleRecord{Hash: hash, Module: d}
	if err := writeYAML(path, rec); err != nil {
		return "", false, errors.Wrap(errors.ErrCodeInternal, err, "write module %s", d.Name)
	}
	s.modules[hash] = rec
	return hash, true, nil
}

// Close closes the dump cache.
func (s *DirStore) Close() error {
	return s.dumps.Close()
}

func (s *DirStore) loadProjects() error {
	return s.walkRecords(ProjectsDir, func(path string, data []byte) {
		var p project.Project
		if err := yaml.Unmarshal(data, &p); err != nil {
			s.logger.Warn("skipping malformed project record", "path", path, "err", err)
			return
		}
		if p.ID == "" {
			s.logger.Warn("skipping project record without id", "path", path)
			return
		}
		p.Normalize()
		s.projects[p.ID] = &p
	})
}

func (s *DirStore) loadModules() error {
	return s.walkRecords(ModulesDir, func(path string, data []byte) {
		var rec ModuleRecord
		if err := yaml.Unmarshal(data, &rec); err != nil {
			s.logger.Warn("skipping malformed module record", "path", path, "err", err)
			return
		}
		if rec.Module == nil {
			s.logger.Warn("skipping module record without module", "path", path)
			return
		}
		if rec.Hash == "" {
			hash, err := ModuleHash(rec.Module)
			if err != nil {
				s.logger.Warn("skipping unhashable module record", "path", path, "err", err)
				return
			}
			rec.Hash = hash
		}
		s.modules[rec.Hash] = &rec
	})
}

func (s *DirStore) walkRecords(dir string, fn func(path string, data []byte)) error {
	entries, err := os.ReadDir(filepath.Join(s.root, dir))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read catalog directory %s", dir)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		path := filepath.Join(s.root, dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable record", "path", path, "err", err)
			continue
		}
		fn(path, data)
	}
	return nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Ensure DirStore implements Store.
var _ Store = (*DirStore)(nil)
