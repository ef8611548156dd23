package vcs

import (
	"context"
	stderrors "errors"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/matzehuels/flatmine/pkg/errors"
	"github.com/matzehuels/flatmine/pkg/project"
)

// GitClient is a [Client] backed by go-git.
type GitClient struct {
	dir    string
	tokens map[string]string
	logger *log.Logger
}

// NewGitClient returns a client keeping checkouts under dir. tokens maps a
// host name to an access token used for HTTPS basic auth on that host; it
// may be nil.
func NewGitClient(dir string, tokens map[string]string, logger *log.Logger) *GitClient {
	if logger == nil {
		logger = log.Default()
	}
	return &GitClient{dir: dir, tokens: tokens, logger: logger}
}

// Dir returns the directory holding the checkouts.
func (c *GitClient) Dir() string { return c.dir }

// Clone clones url into <dir>/<project id>. A failed clone leaves nothing
// behind and returns a CLONE_FAILED error.
func (c *GitClient) Clone(ctx context.Context, rawURL string) (string, error) {
	dest := c.checkoutPath(rawURL)

	if _, err := git.PlainOpen(dest); err == nil {
		c.logger.Debug("reusing checkout", "url", rawURL, "dir", dest)
		return dest, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "create checkout directory")
	}
	// A partial directory from an interrupted clone is not a repository.
	_ = os.RemoveAll(dest)

	c.logger.Debug("cloning", "url", rawURL, "dir", dest)
	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:  rawURL,
		Auth: c.authFor(rawURL),
		Tags: git.AllTags,
	})
	if err != nil {
		_ = os.RemoveAll(dest)
		return "", errors.Wrap(errors.ErrCodeCloneFailed, err, "clone %s", rawURL)
	}
	return dest, nil
}

// Checkout force-checks out the commit tag points to. Annotated tags are
// dereferenced to their commit.
func (c *GitClient) Checkout(ctx context.Context, dir, tag string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "open repository %s", dir)
	}

	ref, err := repo.Reference(plumbing.NewTagReferenceName(tag), true)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "tag %s", tag)
	}
	hash := ref.Hash()
	if tagObj, err := repo.TagObject(hash); err == nil {
		commit, err := tagObj.Commit()
		if err != nil {
			return errors.Wrap(errors.ErrCodeNotFound, err, "tag %s does not point to a commit", tag)
		}
		hash = commit.Hash
	}

	wt, err := repo.Worktree()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "open worktree")
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "checkout %s", tag)
	}
	return nil
}

func (c *GitClient) Tags(ctx context.Context, dir string) ([]string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open repository %s", dir)
	}
	iter, err := repo.Tags()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list tags")
	}
	defer iter.Close()

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list tags")
	}
	sort.Strings(tags)
	return tags, nil
}

func (c *GitClient) RootHashes(ctx context.Context, dir string) ([]string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open repository %s", dir)
	}
	head, err := repo.Head()
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		// Empty repository.
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "resolve HEAD")
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "walk history")
	}
	defer iter.Close()

	var roots []string
	err = iter.ForEach(func(commit *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if commit.NumParents() == 0 {
			roots = append(roots, commit.Hash.String())
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "walk history")
	}
	sort.Strings(roots)
	return roots, nil
}

// checkoutPath names the checkout after the project id when the URL has
// one, and after a path-safe form of the URL otherwise.
func (c *GitClient) checkoutPath(rawURL string) string {
	if id, err := project.DeriveID(rawURL); err == nil {
		return filepath.Join(c.dir, id)
	}
	name := strings.TrimSuffix(rawURL, ".git")
	for _, prefix := range []string{"https://", "http://", "git://", "ssh://", "git@"} {
		name = strings.TrimPrefix(name, prefix)
	}
	name = strings.NewReplacer("/", "_", ":", "_").Replace(name)
	return filepath.Join(c.dir, name)
}

func (c *GitClient) authFor(rawURL string) transport.AuthMethod {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	token := c.tokens[u.Hostname()]
	if token == "" {
		return nil
	}
	username := "oauth2"
	if u.Hostname() == "github.com" {
		username = "x-access-token"
	}
	return &http.BasicAuth{Username: username, Password: token}
}

// Ensure GitClient implements Client.
var _ Client = (*GitClient)(nil)
