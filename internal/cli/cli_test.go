package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/matzehuels/flatmine/internal/config"
	"github.com/matzehuels/flatmine/pkg/cache"
	"github.com/matzehuels/flatmine/pkg/catalog"
	"github.com/matzehuels/flatmine/pkg/errors"
	"github.com/matzehuels/flatmine/pkg/miner"
	"github.com/matzehuels/flatmine/pkg/project"
)

const appManifest = `app-id: org.example.App
runtime: org.freedesktop.Platform
runtime-version: '23.08'
sdk: org.freedesktop.Sdk
modules:
  - name: libfoo
    sources:
      - type: archive
        url: https://example.org/libfoo-1.2.3.tar.gz
  - name: app
    buildsystem: meson
    sources:
      - type: git
        url: https://github.com/example/app.git
`

func quietCLI() *CLI {
	return New(&bytes.Buffer{}, LogInfo)
}

// setupCatalog writes a config file pointing at a fresh catalog and returns
// both paths. The environment is cleared of overrides.
func setupCatalog(t *testing.T) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{config.EnvDBPath, config.EnvAssetsDir, config.EnvRedisURL} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	dbPath = filepath.Join(dir, "db")
	configPath = filepath.Join(dir, "config.toml")
	content := "db_path = \"" + dbPath + "\"\nassets_dir = \"" + filepath.Join(dir, "assets") + "\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath, dbPath
}

func TestRootCommandSubcommands(t *testing.T) {
	root := quietCLI().RootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"mine", "resolve", "inspect", "search", "cache", "completion"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing subcommand %q in %v", want, names)
		}
	}
}

func TestSelectSources(t *testing.T) {
	cfg := &config.Config{Sources: []string{"gnome-gitlab-instance"}}

	tests := []struct {
		name    string
		tags    []string
		all     bool
		want    []string
		wantErr bool
	}{
		{name: "all", all: true, want: miner.SourceTags()},
		{name: "explicit", tags: []string{"github-flathub-org", "kde-gitlab-instance"}, want: []string{"github-flathub-org", "kde-gitlab-instance"}},
		{name: "config fallback", want: []string{"gnome-gitlab-instance"}},
		{name: "unknown", tags: []string{"sourceforge"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectSources(tt.tags, tt.all, cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("selectSources() error = %v, wantErr %v", err, tt.wantErr)
			}
			var tags []string
			for _, s := range got {
				tags = append(tags, s.Tag)
			}
			slices.Sort(tags)
			want := slices.Clone(tt.want)
			slices.Sort(want)
			if !slices.Equal(tags, want) {
				t.Errorf("selectSources() = %v, want %v", tags, want)
			}
		})
	}

	if _, err := selectSources(nil, false, &config.Config{}); err == nil {
		t.Error("selectSources() with nothing configured should fail")
	}
}

func TestDumpCache(t *testing.T) {
	ctx := context.Background()
	c := quietCLI()
	store, err := catalog.Open(t.TempDir(), c.Logger)
	if err != nil {
		t.Fatal(err)
	}

	got, err := c.dumpCache(ctx, &config.Config{}, store, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(*cache.NullCache); !ok {
		t.Errorf("dumpCache(noCache) = %T, want *cache.NullCache", got)
	}

	got, err = c.dumpCache(ctx, &config.Config{}, store, false)
	if err != nil {
		t.Fatal(err)
	}
	if got != cache.Cache(store.Dumps()) {
		t.Error("dumpCache() should be the store's dump area")
	}

	srv := miniredis.RunT(t)
	got, err = c.dumpCache(ctx, &config.Config{RedisURL: "redis://" + srv.Addr()}, store, false)
	if err != nil {
		t.Fatalf("dumpCache(redis): %v", err)
	}
	defer got.Close()
	if _, ok := got.(*cache.RedisCache); !ok {
		t.Errorf("dumpCache(redis) = %T, want *cache.RedisCache", got)
	}
}

func TestClearDumps(t *testing.T) {
	ctx := context.Background()
	store, err := catalog.Open(t.TempDir(), quietCLI().Logger)
	if err != nil {
		t.Fatal(err)
	}
	dumps := store.Dumps()
	for _, key := range []string{"flathub", "gitlab_gnome_org", "invent_kde_org"} {
		if err := dumps.Set(ctx, key, []string{"https://example.org/" + key + ".git"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := listDumps(ctx, dumps); err != nil {
		t.Fatalf("listDumps: %v", err)
	}

	if err := clearDumps(ctx, dumps, []string{"flathub"}); err != nil {
		t.Fatalf("clearDumps(flathub): %v", err)
	}
	keys, _ := dumps.Keys(ctx)
	if !slices.Equal(keys, []string{"gitlab_gnome_org", "invent_kde_org"}) {
		t.Errorf("keys after clearing one = %v", keys)
	}

	if err := clearDumps(ctx, dumps, nil); err != nil {
		t.Fatalf("clearDumps(all): %v", err)
	}
	if keys, _ := dumps.Keys(ctx); len(keys) != 0 {
		t.Errorf("keys after clearing all = %v", keys)
	}

	if err := clearDumps(ctx, dumps, []string{"../escape"}); err == nil {
		t.Error("clearDumps() should reject a key with a path separator")
	}
}

func TestSearchCommand(t *testing.T) {
	configPath, dbPath := setupCatalog(t)

	store, err := catalog.Open(dbPath, quietCLI().Logger)
	if err != nil {
		t.Fatal(err)
	}
	p, err := project.New("https://github.com/flathub/org.gnome.Lollypop.git", "github-flathub-org")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertProject(p); err != nil {
		t.Fatal(err)
	}

	for _, args := range [][]string{
		{"--config", configPath, "search", "projects", "lollypop"},
		{"--config", configPath, "search", "modules", "libfoo"},
		{"--config", configPath, "cache", "path"},
		{"--config", configPath, "cache", "list"},
	} {
		root := quietCLI().RootCommand()
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Errorf("%v: %v", args[2:], err)
		}
	}
}

func TestResolveRequiresInput(t *testing.T) {
	configPath, _ := setupCatalog(t)
	root := quietCLI().RootCommand()
	root.SetArgs([]string{"--config", configPath, "resolve"})
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Error("resolve without URLs or --from-catalog should fail")
	}
}

func TestMineRejectsUnknownSource(t *testing.T) {
	configPath, dbPath := setupCatalog(t)
	root := quietCLI().RootCommand()
	root.SetArgs([]string{"--config", configPath, "mine", "sourceforge"})
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Error("mine with an unknown source should fail")
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Error("catalog should not be created before sources are validated")
	}
}

func TestRunInspect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "org.example.App.yaml")
	if err := os.WriteFile(path, []byte(appManifest), 0o644); err != nil {
		t.Fatal(err)
	}

	c := quietCLI()
	if err := c.runInspect(path, false); err != nil {
		t.Errorf("runInspect(): %v", err)
	}
	if err := c.runInspect(path, true); err != nil {
		t.Errorf("runInspect(dump): %v", err)
	}

	bad := filepath.Join(dir, "org.example.Broken.yaml")
	if err := os.WriteFile(bad, []byte("app-id: org.example.Broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.runInspect(bad, false); !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("runInspect(broken) error = %v, want INVALID_MANIFEST", err)
	}

	if err := c.runInspect(filepath.Join(dir, "missing.yaml"), false); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("runInspect(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestCompleteSources(t *testing.T) {
	got, _ := completeSources(nil, []string{"github-search-flathub"}, "github-search")
	if !slices.Equal(got, []string{"github-search-flatpak"}) {
		t.Errorf("completeSources() = %v", got)
	}
}
