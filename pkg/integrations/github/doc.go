// Package github lists GitHub repositories that may carry Flatpak manifests.
//
// # Overview
//
// Two listings feed the miner, both built on go-github:
//
//   - [Client.OrgRepositories]: every repository of an organization,
//     normally [DefaultOrg]
//   - [Client.SearchRepositories]: repositories mentioning a term in their
//     readme or carrying it as a topic
//
// Forks are skipped and clone URLs are normalized to the https .git form.
//
// # Usage
//
//	client := github.NewClient(os.Getenv("FLATMINE_GITHUB_TOKEN"))
//	urls, err := client.OrgRepositories(ctx, github.DefaultOrg)
//
// # Search Limits
//
// GitHub serves at most 1000 results per search query. Readme searches
// are split into creation-date windows to stay under the cap; a window
// that still exceeds it is reported as an error rather than truncated.
package github
