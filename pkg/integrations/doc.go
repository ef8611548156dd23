// Package integrations provides HTTP clients for code-hosting forge APIs.
//
// # Overview
//
// The miner seeds its crawl with repository URLs enumerated from forges.
// Each forge has its own subpackage:
//
//   - [github]: GitHub organization listing and repository search
//   - [gitlab]: GitLab instance listing and project search
//
// Every listing is exposed as a [Lister], which returns clone URLs in
// the form accepted by project identifiers (https, .git suffix).
//
// # Shared Infrastructure
//
// The [Client] type applies default headers (tokens, Accept) and follows
// Link-header pagination via [NextPageURL]. Requests report to the hooks
// registered with [observability.SetHTTPHooks]. Failures are returned
// as-is; nothing is retried.
//
// [github]: github.com/matzehuels/flatmine/pkg/integrations/github
// [gitlab]: github.com/matzehuels/flatmine/pkg/integrations/gitlab
// [observability.SetHTTPHooks]: github.com/matzehuels/flatmine/pkg/observability.SetHTTPHooks
package integrations
