package vcs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

var signature = &object.Signature{Name: "Test", Email: "test@example.org", When: time.Unix(1600000000, 0)}

// initRepo creates a repository with two commits: v1.0.0 (lightweight tag)
// with README "first" and v1.1.0 (annotated tag) with README "second".
func initRepo(t *testing.T, dir string) (first, second plumbing.Hash) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}

	commit := func(content, msg string) plumbing.Hash {
		if err := os.WriteFile(filepath.Join(dir, "README"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add("README"); err != nil {
			t.Fatalf("Add: %v", err)
		}
		h, err := wt.Commit(msg, &git.CommitOptions{Author: signature})
		if err != nil {
			t.Fatalf("Commit: %v", err)
		}
		return h
	}

	first = commit("first", "initial import")
	if _, err := repo.CreateTag("v1.0.0", first, nil); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	second = commit("second", "release 1.1.0")
	if _, err := repo.CreateTag("v1.1.0", second, &git.CreateTagOptions{Tagger: signature, Message: "1.1.0"}); err != nil {
		t.Fatalf("CreateTag annotated: %v", err)
	}
	return first, second
}

func newTestClient(t *testing.T) *GitClient {
	return NewGitClient(t.TempDir(), nil, log.New(io.Discard))
}

func TestTags(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir)

	tags, err := newTestClient(t).Tags(context.Background(), dir)
	if err != nil {
		t.Fatalf("Tags() error: %v", err)
	}
	if !slices.Equal(tags, []string{"v1.0.0", "v1.1.0"}) {
		t.Errorf("Tags() = %v", tags)
	}
}

func TestRootHashes(t *testing.T) {
	dir := t.TempDir()
	first, _ := initRepo(t, dir)

	roots, err := newTestClient(t).RootHashes(context.Background(), dir)
	if err != nil {
		t.Fatalf("RootHashes() error: %v", err)
	}
	if !slices.Equal(roots, []string{first.String()}) {
		t.Errorf("RootHashes() = %v, want [%s]", roots, first)
	}
}

func TestRootHashesEmptyRepository(t *testing.T) {
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatal(err)
	}
	roots, err := newTestClient(t).RootHashes(context.Background(), dir)
	if err != nil || len(roots) != 0 {
		t.Errorf("RootHashes() = %v, %v; want none", roots, err)
	}
}

func TestCheckout(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir)
	c := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		tag  string
		want string
	}{
		{"v1.0.0", "first"},
		{"v1.1.0", "second"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if err := c.Checkout(ctx, dir, tt.tag); err != nil {
				t.Fatalf("Checkout() error: %v", err)
			}
			got, err := os.ReadFile(filepath.Join(dir, "README"))
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("README = %q, want %q", got, tt.want)
			}
		})
	}

	if err := c.Checkout(ctx, dir, "v9.9.9"); err == nil {
		t.Error("Checkout() of a missing tag should fail")
	}
}

func TestCloneReusesCheckout(t *testing.T) {
	c := newTestClient(t)
	existing := filepath.Join(c.Dir(), "com.github.louib.fpm")
	initRepo(t, existing)

	dir, err := c.Clone(context.Background(), "https://github.com/louib/fpm.git")
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	if dir != existing {
		t.Errorf("Clone() = %q, want %q", dir, existing)
	}
}

func TestCheckoutPath(t *testing.T) {
	c := NewGitClient("/repos", nil, nil)
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/louib/fpm.git", "/repos/com.github.louib.fpm"},
		{"https://github.com/louib/fpm", "/repos/github.com_louib_fpm"},
		{"git@gitlab.com:louib/fpm.git", "/repos/gitlab.com_louib_fpm"},
	}
	for _, tt := range tests {
		if got := c.checkoutPath(tt.url); got != tt.want {
			t.Errorf("checkoutPath(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestAuthFor(t *testing.T) {
	c := NewGitClient(t.TempDir(), map[string]string{
		"github.com":       "gh-token",
		"gitlab.gnome.org": "gnome-token",
	}, nil)

	auth, ok := c.authFor("https://github.com/louib/fpm.git").(*http.BasicAuth)
	if !ok || auth.Username != "x-access-token" || auth.Password != "gh-token" {
		t.Errorf("github auth = %+v", auth)
	}
	auth, ok = c.authFor("https://gitlab.gnome.org/GNOME/libsecret.git").(*http.BasicAuth)
	if !ok || auth.Username != "oauth2" || auth.Password != "gnome-token" {
		t.Errorf("gitlab auth = %+v", auth)
	}
	if got := c.authFor("https://bitbucket.org/a/b.git"); got != nil {
		t.Errorf("auth for unknown host = %v, want nil", got)
	}
}
