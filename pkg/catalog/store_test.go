package catalog

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flatmine/pkg/errors"
	"github.com/matzehuels/flatmine/pkg/manifest"
	"github.com/matzehuels/flatmine/pkg/project"
)

func openTestStore(t *testing.T, root string) *DirStore {
	t.Helper()
	s, err := Open(root, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func gitSource(url string) manifest.Source {
	return manifest.Source{Description: &manifest.SourceDescription{Type: manifest.SourceGit, URL: url}}
}

func archiveSource(url string) manifest.Source {
	return manifest.Source{Description: &manifest.SourceDescription{Type: manifest.SourceArchive, URL: url}}
}

func TestOpenCreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "db")
	s := openTestStore(t, root)

	for _, dir := range []string{ModulesDir, ProjectsDir, RepositoriesDir} {
		if info, err := os.Stat(filepath.Join(root, dir)); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
	if s.Root() != root {
		t.Errorf("Root() = %q", s.Root())
	}
	if s.Dumps().Dir() != filepath.Join(root, RepositoriesDir) {
		t.Errorf("Dumps().Dir() = %q", s.Dumps().Dir())
	}
}

func TestOpenInvalidRoot(t *testing.T) {
	if _, err := Open("", nil); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("Open(\"\") error = %v, want INVALID_PATH", err)
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(file, log.New(io.Discard)); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("Open(file) error = %v, want INVALID_PATH", err)
	}
}

func TestUpsertProjectMergesAcrossRuns(t *testing.T) {
	root := t.TempDir()
	const url = "https://github.com/louib/fpm.git"

	s := openTestStore(t, root)
	p, _ := project.New(url, "github-flathub-org")
	p.AddAppManifest("net.louib.fpm.yaml")
	if err := s.UpsertProject(p); err != nil {
		t.Fatalf("UpsertProject() error: %v", err)
	}

	// A second run, through another source, sees the same repository.
	s2 := openTestStore(t, root)
	q, _ := project.New(url, "gitlab-search-flatpak")
	q.AddBuildSystem("cargo")
	if err := s2.UpsertProject(q); err != nil {
		t.Fatalf("UpsertProject() error: %v", err)
	}

	s3 := openTestStore(t, root)
	projects := s3.Projects()
	if len(projects) != 1 {
		t.Fatalf("len(Projects()) = %d, want 1", len(projects))
	}
	got := projects[0]
	if !slices.Equal(got.Sources, []string{"github-flathub-org", "gitlab-search-flatpak"}) {
		t.Errorf("Sources = %v", got.Sources)
	}
	if !got.SupportsFlatpak() || !slices.Equal(got.BuildSystems, []string{"cargo"}) {
		t.Errorf("merged project = %+v", got)
	}
}

func TestUpsertProjectIdempotent(t *testing.T) {
	root := t.TempDir()
	s := openTestStore(t, root)
	p, _ := project.New("https://gitlab.com/louib/fpm.git", "gitlab-com")

	if err := s.UpsertProject(p); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, ProjectsDir, "com.gitlab.louib.fpm.yaml")
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("project file not written: %v", err)
	}
	if err := s.UpsertProject(p); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(path)
	if string(first) != string(second) {
		t.Errorf("second upsert changed record:\n%s\n---\n%s", first, second)
	}
}

func TestUpsertProjectRejectsBadID(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	if err := s.UpsertProject(&project.Project{ID: "../escape"}); !errors.Is(err, errors.ErrCodeInvalidIdentifier) {
		t.Errorf("UpsertProject() error = %v, want INVALID_IDENTIFIER", err)
	}
}

func TestProjectReturnsCopy(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	p, _ := project.New("https://github.com/louib/fpm.git", "github-flathub-org")
	_ = s.UpsertProject(p)

	got, ok := s.Project("com.github.louib.fpm")
	if !ok {
		t.Fatal("Project() not found")
	}
	got.AddSource("mutated")
	again, _ := s.Project("com.github.louib.fpm")
	if again.HasSource("mutated") {
		t.Error("Project() leaked the stored record")
	}
	if _, ok := s.Project("missing"); ok {
		t.Error("Project(missing) found")
	}
}

func TestUpsertModule(t *testing.T) {
	root := t.TempDir()
	s := openTestStore(t, root)

	mod := &manifest.ModuleDescription{
		Name:    "libass",
		Sources: []manifest.Source{gitSource("https://github.com/libass/libass.git"), archiveSource("https://example.org/a.tar.gz")},
	}
	same := &manifest.ModuleDescription{
		Name:    "libass",
		Sources: []manifest.Source{gitSource("https://github.com/libass/libass.git"), archiveSource("https://example.org/a.tar.gz")},
	}
	reordered := &manifest.ModuleDescription{
		Name:    "libass",
		Sources: []manifest.Source{archiveSource("https://example.org/a.tar.gz"), gitSource("https://github.com/libass/libass.git")},
	}

	h1, created, err := s.UpsertModule(mod)
	if err != nil || !created {
		t.Fatalf("UpsertModule() = %s, %v, %v; want created", h1, created, err)
	}
	if _, err := os.Stat(filepath.Join(root, ModulesDir, h1+".yaml")); err != nil {
		t.Errorf("module file not written: %v", err)
	}

	h2, created, err := s.UpsertModule(same)
	if err != nil || created {
		t.Errorf("identical UpsertModule() created = %v, err = %v; want no-op", created, err)
	}
	if h1 != h2 {
		t.Errorf("identical modules hash differently: %s vs %s", h1, h2)
	}

	h3, created, _ := s.UpsertModule(reordered)
	if h3 == h1 || !created {
		t.Errorf("reordered sources should hash differently and be created")
	}
	if got := len(s.Modules()); got != 2 {
		t.Errorf("len(Modules()) = %d, want 2", got)
	}

	// The index is rebuilt from disk.
	reopened := openTestStore(t, root)
	if _, created, _ := reopened.UpsertModule(same); created {
		t.Error("module stored in a previous run was inserted again")
	}
}

func TestMalformedRecordsAreSkipped(t *testing.T) {
	root := t.TempDir()
	s := openTestStore(t, root)
	p, _ := project.New("https://github.com/louib/fpm.git", "github-flathub-org")
	_ = s.UpsertProject(p)

	writes := map[string]string{
		filepath.Join(root, ProjectsDir, "broken.yaml"):  "id: [unterminated",
		filepath.Join(root, ProjectsDir, "noid.yaml"):    "name: nameless\n",
		filepath.Join(root, ProjectsDir, "notes.txt"):    "ignored",
		filepath.Join(root, ModulesDir, "broken.yaml"):   "- just\n- a list\n",
		filepath.Join(root, ModulesDir, "empty.yml"):     "hash: abc\n",
		filepath.Join(root, ModulesDir, "unhashed.yaml"): "module:\n  name: zlib\n  sources:\n    - type: archive\n      url: https://zlib.net/zlib-1.2.11.tar.gz\n",
	}
	for path, content := range writes {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	reopened := openTestStore(t, root)
	if got := len(reopened.Projects()); got != 1 {
		t.Errorf("len(Projects()) = %d, want 1", got)
	}
	mods := reopened.Modules()
	if len(mods) != 1 || mods[0].Module.Name != "zlib" || mods[0].Hash == "" {
		t.Errorf("Modules() = %+v, want only the hashed zlib record", mods)
	}
}

func TestSearch(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	for _, u := range []string{
		"https://github.com/louib/fpm.git",
		"https://gitlab.gnome.org/GNOME/gnome-builder.git",
	} {
		p, _ := project.New(u, "test")
		_ = s.UpsertProject(p)
	}
	_, _, _ = s.UpsertModule(&manifest.ModuleDescription{Name: "LibSecret", Sources: []manifest.Source{archiveSource("https://example.org/libsecret-0.19.1.tar.xz")}})

	if got := s.SearchProjects("GNOME"); len(got) != 1 || got[0].ID != "org.gnome.gitlab.GNOME.gnome-builder" {
		t.Errorf("SearchProjects(GNOME) = %v", got)
	}
	if got := s.SearchProjects("louib"); len(got) != 1 {
		t.Errorf("SearchProjects(louib) = %v", got)
	}
	if got := s.SearchProjects("nothing"); len(got) != 0 {
		t.Errorf("SearchProjects(nothing) = %v", got)
	}
	if got := s.SearchModules("libsecret"); len(got) != 1 {
		t.Errorf("SearchModules(libsecret) = %v", got)
	}
}

func TestObservedURLs(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	p, _ := project.New("https://github.com/sass/libsass.git", "test")
	_ = s.UpsertProject(p)
	_, _, _ = s.UpsertModule(&manifest.ModuleDescription{
		Name: "sassc",
		Sources: []manifest.Source{
			gitSource("https://github.com/sass/sassc.git"),
			gitSource("https://github.com/sass/libsass.git"),
			gitSource("file:///home/user/sassc"),
			archiveSource("https://github.com/sass/libsass/archive/3.6.4.tar.gz"),
		},
	})

	wantGit := []string{"https://github.com/sass/libsass.git", "https://github.com/sass/sassc.git"}
	if got := s.GitURLs(); !slices.Equal(got, wantGit) {
		t.Errorf("GitURLs() = %v, want %v", got, wantGit)
	}
	wantArchive := []string{"https://github.com/sass/libsass/archive/3.6.4.tar.gz"}
	if got := s.ArchiveURLs(); !slices.Equal(got, wantArchive) {
		t.Errorf("ArchiveURLs() = %v, want %v", got, wantArchive)
	}
}

func TestArchiveURLsIncludeUntypedSources(t *testing.T) {
	root := t.TempDir()
	s := openTestStore(t, root)
	_, _, err := s.UpsertModule(&manifest.ModuleDescription{
		Name: "libfoo",
		Sources: []manifest.Source{
			{Description: &manifest.SourceDescription{URL: "https://example.org/libfoo-1.2.3.tar.gz"}},
			{Description: &manifest.SourceDescription{Type: manifest.SourceFile, URL: "https://example.org/libfoo.desktop"}},
		},
	})
	if err != nil {
		t.Fatalf("UpsertModule() error: %v", err)
	}

	want := []string{"https://example.org/libfoo-1.2.3.tar.gz"}
	if got := s.ArchiveURLs(); !slices.Equal(got, want) {
		t.Errorf("ArchiveURLs() = %v, want %v", got, want)
	}

	s.Close()
	reopened := openTestStore(t, root)
	if got := reopened.ArchiveURLs(); !slices.Equal(got, want) {
		t.Errorf("ArchiveURLs() after reopen = %v, want %v", got, want)
	}
}

func TestDefaultRoot(t *testing.T) {
	t.Setenv(EnvDBPath, "/srv/flatmine")
	if got, err := DefaultRoot(); err != nil || got != "/srv/flatmine" {
		t.Errorf("DefaultRoot() = %q, %v", got, err)
	}

	home := t.TempDir()
	t.Setenv(EnvDBPath, "")
	t.Setenv("HOME", home)
	if got, _ := DefaultRoot(); got != filepath.Join(home, ".flatmine-db") {
		t.Errorf("DefaultRoot() = %q", got)
	}
}
