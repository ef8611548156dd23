package catalog

import (
	"sort"
	"strings"

	"github.com/matzehuels/flatmine/pkg/project"
)

// SearchProjects returns projects whose id or name contains term, ignoring case.
func (s *DirStore) SearchProjects(term string) []*project.Project {
	term = strings.ToLower(term)
	var out []*project.Project
	for _, p := range s.Projects() {
		if strings.Contains(strings.ToLower(p.ID), term) || strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p)
		}
	}
	return out
}

// SearchModules returns modules whose name contains term, ignoring case.
func (s *DirStore) SearchModules(term string) []*ModuleRecord {
	term = strings.ToLower(term)
	var out []*ModuleRecord
	for _, m := range s.Modules() {
		if strings.Contains(strings.ToLower(m.Module.Name), term) {
			out = append(out, m)
		}
	}
	return out
}

// GitURLs returns the VCS URLs of every project and the git source URLs of
// every stored module, deduplicated and sorted.
func (s *DirStore) GitURLs() []string {
	seen := make(map[string]struct{})
	for _, p := range s.projects {
		for _, u := range p.VCSURLs {
			seen[u] = struct{}{}
		}
	}
	for _, m := range s.modules {
		for _, u := range m.Module.GitURLs() {
			seen[u] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// ArchiveURLs returns the archive source URLs of every stored module,
// deduplicated and sorted.
func (s *DirStore) ArchiveURLs() []string {
	seen := make(map[string]struct{})
	for _, m := range s.modules {
		for _, u := range m.Module.ArchiveURLs() {
			seen[u] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
