package gitlab

import (
	"context"
	"fmt"
	"net/url"

	"github.com/matzehuels/flatmine/pkg/integrations"
)

// DefaultHost is the public GitLab instance, which also serves project search.
const DefaultHost = "gitlab.com"

// project is the subset of the GitLab project resource the listers read.
// See https://docs.gitlab.com/ee/api/projects.html.
type project struct {
	Name              string         `json:"name"`
	HTTPURLToRepo     string         `json:"http_url_to_repo"`
	ForkedFromProject *parentProject `json:"forked_from_project,omitempty"`
}

type parentProject struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Client lists projects of one GitLab instance through its v4 REST API.
type Client struct {
	*integrations.Client
	host    string
	baseURL string
}

// NewClient creates a client for the GitLab instance at host, authenticated
// with a personal access token sent as PRIVATE-TOKEN. An empty token sends
// unauthenticated requests.
func NewClient(host, token string) *Client {
	var headers map[string]string
	if token != "" {
		headers = map[string]string{"PRIVATE-TOKEN": token}
	}
	return &Client{
		Client:  integrations.NewClient(headers),
		host:    host,
		baseURL: "https://" + host + "/api/v4",
	}
}

// Host returns the instance host name.
func (c *Client) Host() string { return c.host }

// Projects returns the clone URL of every non-fork project on the instance.
func (c *Client) Projects(ctx context.Context) ([]string, error) {
	return c.collect(ctx, c.baseURL+"/projects?per_page=100&simple=false")
}

// SearchProjects returns the clone URL of every non-fork project matching term.
func (c *Client) SearchProjects(ctx context.Context, term string) ([]string, error) {
	return c.collect(ctx, fmt.Sprintf("%s/search?scope=projects&search=%s", c.baseURL, url.QueryEscape(term)))
}

// InstanceLister returns a lister over [Client.Projects].
func (c *Client) InstanceLister() integrations.Lister {
	return integrations.ListerFunc(c.Projects)
}

// SearchLister returns a lister over [Client.SearchProjects] for term.
func (c *Client) SearchLister(term string) integrations.Lister {
	return integrations.ListerFunc(func(ctx context.Context) ([]string, error) {
		return c.SearchProjects(ctx, term)
	})
}

// collect follows Link-header pagination from first until a page is empty
// or has no successor. URLs gathered before a failing page are returned
// along with the error.
func (c *Client) collect(ctx context.Context, first string) ([]string, error) {
	var urls []string
	for next := first; next != ""; {
		if err := ctx.Err(); err != nil {
			return urls, err
		}
		var page []project
		var err error
		next, err = c.GetPage(ctx, next, &page)
		if err != nil {
			return urls, fmt.Errorf("gitlab %s: %w", c.host, err)
		}
		if len(page) == 0 {
			break
		}
		for _, p := range page {
			if p.ForkedFromProject != nil {
				continue
			}
			if u := integrations.NormalizeRepoURL(p.HTTPURLToRepo); u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls, nil
}
