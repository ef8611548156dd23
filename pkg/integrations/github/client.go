package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v74/github"

	"github.com/matzehuels/flatmine/pkg/integrations"
)

// DefaultOrg is the organization hosting the Flathub application manifests.
const DefaultOrg = "flathub"

// maxSearchResults is the number of results GitHub serves for one search
// query. Queries that match more are silently truncated.
const maxSearchResults = 1000

// searchWindows split a readme search into creation-date windows so that
// each query stays under [maxSearchResults].
var searchWindows = []string{
	"created:2012-01-01..2017-01-01",
	"created:2017-01-01..2019-01-01",
	"created:2019-01-01..2020-01-01",
	"created:2020-01-01..2021-01-01",
	"created:>2021-01-01",
}

// Client lists GitHub repositories through the REST API.
type Client struct {
	gh *github.Client
}

// NewClient creates a GitHub API client. Pass an empty token for
// unauthenticated requests, which are limited to 60 requests/hour.
func NewClient(token string) *Client {
	gh := github.NewClient(integrations.NewHTTPClient())
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	return &Client{gh: gh}
}

// OrgRepositories returns the clone URL of every non-fork repository of org.
func (c *Client) OrgRepositories(ctx context.Context, org string) ([]string, error) {
	opts := &github.RepositoryListByOrgOptions{
		Type:        "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	var urls []string
	for {
		repos, resp, err := c.gh.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return urls, wrap(err, "list org %s", org)
		}
		urls = appendCloneURLs(urls, repos)
		if resp.NextPage == 0 {
			return urls, nil
		}
		opts.Page = resp.NextPage
	}
}

// SearchRepositories returns the clone URL of every non-fork repository
// whose readme mentions term or that carries term as a topic. Flathub's
// own repositories are excluded; [Client.OrgRepositories] covers them.
func (c *Client) SearchRepositories(ctx context.Context, term string) ([]string, error) {
	var urls []string
	for _, window := range searchWindows {
		found, err := c.search(ctx, fmt.Sprintf("%s in:readme fork:false -org:%s %s", term, DefaultOrg, window))
		urls = append(urls, found...)
		if err != nil {
			return urls, err
		}
	}
	found, err := c.search(ctx, fmt.Sprintf("topic:%s fork:false -org:%s", term, DefaultOrg))
	return append(urls, found...), err
}

func (c *Client) search(ctx context.Context, query string) ([]string, error) {
	opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var urls []string
	for {
		result, resp, err := c.gh.Search.Repositories(ctx, query, opts)
		if err != nil {
			return urls, wrap(err, "search %q", query)
		}
		if opts.Page == 0 && result.GetTotal() > maxSearchResults {
			return nil, fmt.Errorf("search %q matched %d repositories, more than the %d GitHub serves", query, result.GetTotal(), maxSearchResults)
		}
		urls = appendCloneURLs(urls, result.Repositories)
		if resp.NextPage == 0 {
			return urls, nil
		}
		opts.Page = resp.NextPage
	}
}

// OrgLister returns a lister over [Client.OrgRepositories] for org.
func (c *Client) OrgLister(org string) integrations.Lister {
	return integrations.ListerFunc(func(ctx context.Context) ([]string, error) {
		return c.OrgRepositories(ctx, org)
	})
}

// SearchLister returns a lister over [Client.SearchRepositories] for term.
func (c *Client) SearchLister(term string) integrations.Lister {
	return integrations.ListerFunc(func(ctx context.Context) ([]string, error) {
		return c.SearchRepositories(ctx, term)
	})
}

func appendCloneURLs(urls []string, repos []*github.Repository) []string {
	for _, r := range repos {
		if r.GetFork() {
			continue
		}
		if u := integrations.NormalizeRepoURL(r.GetCloneURL()); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func wrap(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	var apiErr *github.ErrorResponse
	if errors.As(err, &apiErr) && apiErr.Response != nil && apiErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: github %s", integrations.ErrNotFound, msg)
	}
	return fmt.Errorf("%w: github %s: %v", integrations.ErrNetwork, msg, err)
}
