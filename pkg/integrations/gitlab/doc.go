// Package gitlab lists projects hosted on GitLab instances.
//
// # Overview
//
// Two listings feed the miner:
//
//   - [Client.Projects]: every project of an instance (gitlab.gnome.org,
//     invent.kde.org, salsa.debian.org and so on)
//   - [Client.SearchProjects]: the project search of gitlab.com
//
// Forks are skipped. Results are the http_url_to_repo of each project,
// normalized to the https .git form.
//
// # Usage
//
//	client := gitlab.NewClient("gitlab.gnome.org", os.Getenv("FLATMINE_GNOME_GITLAB_TOKEN"))
//	urls, err := client.Projects(ctx)
//
// # Authentication
//
// Tokens are sent in the PRIVATE-TOKEN header. Instance listings without
// a token only see public projects and are rate limited aggressively.
package gitlab
