package miner

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flatmine/pkg/cache"
	"github.com/matzehuels/flatmine/pkg/integrations"
	"github.com/matzehuels/flatmine/pkg/integrations/github"
	"github.com/matzehuels/flatmine/pkg/integrations/gitlab"
)

// Source is a forge listing that seeds the crawl.
type Source struct {
	// Tag is recorded on every project the source leads to.
	Tag string

	// Host is the forge host whose token authenticates the listing.
	Host string

	// TokenEnv names the environment variable holding that token.
	TokenEnv string

	// DumpKey names the discovery dump memoizing the listing.
	DumpKey string

	// NewLister builds the forge listing for a token.
	NewLister func(token string) integrations.Lister
}

// Token environment variables.
const (
	EnvGitHubToken       = "FLATMINE_GITHUB_TOKEN"
	EnvGitLabToken       = "FLATMINE_GITLAB_TOKEN"
	EnvGnomeGitLabToken  = "FLATMINE_GNOME_GITLAB_TOKEN"
	EnvPurismGitLabToken = "FLATMINE_PURISM_GITLAB_TOKEN"
	EnvDebianGitLabToken = "FLATMINE_DEBIAN_GITLAB_TOKEN"
	EnvXDGGitLabToken    = "FLATMINE_XDG_GITLAB_TOKEN"
	EnvKDEGitLabToken    = "FLATMINE_KDE_GITLAB_TOKEN"
)

// Sources lists every known discovery source.
var Sources = []Source{
	githubOrg("github-flathub-org", github.DefaultOrg),
	githubOrg("github-elementary-org", "elementary"),
	githubOrg("github-endless-org", "endlessm"),
	githubSearch("github-search-flatpak", "flatpak"),
	githubSearch("github-search-flathub", "flathub"),
	gitlabSearch("gitlab-search-flatpak", "flatpak"),
	gitlabSearch("gitlab-search-flathub", "flathub"),
	gitlabInstance("gnome-gitlab-instance", "gitlab.gnome.org", EnvGnomeGitLabToken),
	gitlabInstance("purism-gitlab-instance", "source.puri.sm", EnvPurismGitLabToken),
	gitlabInstance("debian-gitlab-instance", "salsa.debian.org", EnvDebianGitLabToken),
	gitlabInstance("xdg-gitlab-instance", "gitlab.freedesktop.org", EnvXDGGitLabToken),
	gitlabInstance("kde-gitlab-instance", "invent.kde.org", EnvKDEGitLabToken),
	gitlabInstance("gitlab-com", gitlab.DefaultHost, EnvGitLabToken),
}

func githubOrg(tag, org string) Source {
	return Source{
		Tag:      tag,
		Host:     "github.com",
		TokenEnv: EnvGitHubToken,
		DumpKey:  org,
		NewLister: func(token string) integrations.Lister {
			return github.NewClient(token).OrgLister(org)
		},
	}
}

func githubSearch(tag, term string) Source {
	return Source{
		Tag:      tag,
		Host:     "github.com",
		TokenEnv: EnvGitHubToken,
		DumpKey:  "github_repo_search_" + term,
		NewLister: func(token string) integrations.Lister {
			return github.NewClient(token).SearchLister(term)
		},
	}
}

func gitlabSearch(tag, term string) Source {
	return Source{
		Tag:      tag,
		Host:     gitlab.DefaultHost,
		TokenEnv: EnvGitLabToken,
		DumpKey:  "gitlab_repo_search_" + term,
		NewLister: func(token string) integrations.Lister {
			return gitlab.NewClient(gitlab.DefaultHost, token).SearchLister(term)
		},
	}
}

func gitlabInstance(tag, host, env string) Source {
	return Source{
		Tag:      tag,
		Host:     host,
		TokenEnv: env,
		DumpKey:  integrations.DumpKey(host),
		NewLister: func(token string) integrations.Lister {
			return gitlab.NewClient(host, token).InstanceLister()
		},
	}
}

// LookupSource returns the source tagged tag.
func LookupSource(tag string) (Source, bool) {
	for _, s := range Sources {
		if s.Tag == tag {
			return s, true
		}
	}
	return Source{}, false
}

// SourceTags returns the tags of [Sources], sorted.
func SourceTags() []string {
	tags := make([]string, len(Sources))
	for i, s := range Sources {
		tags[i] = s.Tag
	}
	sort.Strings(tags)
	return tags
}

// Discover returns the seed targets of src. A dump stored under
// src.DumpKey is trusted as-is; otherwise the forge is listed with token
// and a complete listing is saved for later runs. Without a token the
// source is skipped with a warning. A listing that fails part way is
// used but not saved.
func Discover(ctx context.Context, src Source, token string, dumps cache.Cache, logger *log.Logger) ([]Target, error) {
	if logger == nil {
		logger = log.Default()
	}

	urls, ok, err := dumps.Get(ctx, src.DumpKey)
	if err != nil {
		return nil, err
	}
	if ok {
		logger.Info("reusing discovery dump", "source", src.Tag, "key", src.DumpKey, "repositories", len(urls))
		return targets(urls, src.Tag), nil
	}

	if token == "" {
		logger.Warn("no API token, skipping source", "source", src.Tag, "env", src.TokenEnv)
		return nil, nil
	}

	logger.Info("listing repositories", "source", src.Tag, "host", src.Host)
	urls, err = src.NewLister(token).ListRepositories(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("listing incomplete, not saving dump", "source", src.Tag, "repositories", len(urls), "err", err)
		return targets(urls, src.Tag), nil
	}

	if len(urls) > 0 {
		if err := dumps.Set(ctx, src.DumpKey, urls); err != nil {
			logger.Warn("could not save discovery dump", "source", src.Tag, "err", err)
		}
	}
	logger.Info("listed repositories", "source", src.Tag, "repositories", len(urls))
	return targets(urls, src.Tag), nil
}

func targets(urls []string, tag string) []Target {
	out := make([]Target, 0, len(urls))
	for _, u := range urls {
		out = append(out, Target{URL: u, Source: tag})
	}
	return out
}
