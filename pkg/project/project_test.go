package project

import (
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/flatmine/pkg/errors"
)

func TestDeriveID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/louib/fpm.git", "com.github.louib.fpm"},
		{"https://gitlab.com/louib/fpm.git", "com.gitlab.louib.fpm"},
		{"https://git.savannah.gnu.org/cgit/make.git", "org.gnu.savannah.git.cgit.make"},
		{"https://gitlab.gnome.org/GNOME/gnome-builder.git", "org.gnome.gitlab.GNOME.gnome-builder"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := DeriveID(tt.url)
			if err != nil {
				t.Fatalf("DeriveID() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DeriveID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveIDRejects(t *testing.T) {
	for _, url := range []string{
		"http://github.com/louib/fpm.git",
		"https://github.com/louib/fpm",
		"git@github.com:louib/fpm.git",
		"https://.git",
		"https://github.com.git",
		"",
	} {
		t.Run(url, func(t *testing.T) {
			_, err := DeriveID(url)
			if !errors.Is(err, errors.ErrCodeInvalidIdentifier) {
				t.Errorf("DeriveID(%q) error = %v, want INVALID_IDENTIFIER", url, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	p, err := New("https://github.com/louib/fpm.git", "github-flathub-org")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if p.ID != "com.github.louib.fpm" || p.Name != "fpm" {
		t.Errorf("New() = %s/%s", p.ID, p.Name)
	}
	if !p.HasSource("github-flathub-org") || p.HasSource("gitlab-com") {
		t.Errorf("Sources = %v", p.Sources)
	}
	if p.Interesting() {
		t.Error("a fresh project is not interesting")
	}
}

func TestSetsStaySorted(t *testing.T) {
	p := &Project{ID: "x"}
	for _, s := range []string{"meson", "cmake", "meson", "autotools", ""} {
		p.AddBuildSystem(s)
	}
	want := []string{"autotools", "cmake", "meson"}
	if !slices.Equal(p.BuildSystems, want) {
		t.Errorf("BuildSystems = %v, want %v", p.BuildSystems, want)
	}
	if !p.Interesting() {
		t.Error("a project with build systems is interesting")
	}
	if p.SupportsFlatpak() {
		t.Error("build systems alone do not mean flatpak support")
	}
}

func TestMerge(t *testing.T) {
	a := &Project{ID: "com.github.louib.fpm", Name: "fpm"}
	a.AddSource("github-flathub-org")
	a.AddAppManifest("net.louib.fpm.yaml")

	b := &Project{ID: "com.github.louib.fpm", Name: "other", Description: "flatpak manifest tool"}
	b.AddSource("gitlab-com")
	b.AddBuildSystem("cargo")
	b.AddRootHash("abc")

	a.Merge(b)

	if a.Name != "fpm" {
		t.Errorf("Name = %q, want first writer to win", a.Name)
	}
	if a.Description != "flatpak manifest tool" {
		t.Errorf("Description = %q, want filled from other", a.Description)
	}
	if !slices.Equal(a.Sources, []string{"github-flathub-org", "gitlab-com"}) {
		t.Errorf("Sources = %v", a.Sources)
	}
	if !a.SupportsFlatpak() || !slices.Equal(a.RootHashes, []string{"abc"}) {
		t.Errorf("merged project = %+v", a)
	}
}

func TestMergeIdempotent(t *testing.T) {
	a := &Project{ID: "id", Name: "a"}
	a.AddSource("s1")
	b := &Project{ID: "id", Name: "b"}
	b.AddSource("s2")
	b.AddVCSURL("https://example.org/a.git")

	a.Merge(b)
	once := *a
	once.Sources = slices.Clone(a.Sources)
	once.VCSURLs = slices.Clone(a.VCSURLs)

	a.Merge(b)
	if !reflect.DeepEqual(&once, a) {
		t.Errorf("second merge changed project:\nonce:  %+v\ntwice: %+v", once, *a)
	}

	a.Merge(a)
	if !reflect.DeepEqual(&once, a) {
		t.Errorf("self merge changed project: %+v", *a)
	}
	a.Merge(nil)
}

func TestNormalize(t *testing.T) {
	p := &Project{ID: "id", Sources: []string{"b", "a", "b"}, WebURLs: []string{}}
	p.Normalize()
	if !slices.Equal(p.Sources, []string{"a", "b"}) {
		t.Errorf("Sources = %v", p.Sources)
	}
	if p.WebURLs != nil {
		t.Errorf("WebURLs = %#v, want nil", p.WebURLs)
	}
}

func TestSharedRootHashes(t *testing.T) {
	a := &Project{ID: "a", RootHashes: []string{"111", "222"}}
	b := &Project{ID: "b", RootHashes: []string{"222", "333"}}
	if got := SharedRootHashes(a, b); !slices.Equal(got, []string{"222"}) {
		t.Errorf("SharedRootHashes() = %v", got)
	}
	c := &Project{ID: "c"}
	if got := SharedRootHashes(a, c); len(got) != 0 {
		t.Errorf("SharedRootHashes() = %v, want none", got)
	}
}

func TestClone(t *testing.T) {
	p := &Project{ID: "id", Sources: []string{"a"}}
	c := p.Clone()
	c.AddSource("b")
	if len(p.Sources) != 1 {
		t.Errorf("Clone shares slices with original: %v", p.Sources)
	}
}
