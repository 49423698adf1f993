package gitops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/styleguide-tools/stylepub/internal/logfields"
)

// Client handles Git operations against a single local repository.
type Client struct {
	repo *git.Repository
	path string
}

// Open opens the repository rooted at path.
func Open(path string) (*Client, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return &Client{repo: repo, path: path}, nil
}

// Path returns the repository root the client operates on.
func (c *Client) Path() string { return c.path }

// CurrentBranch returns the short name of the branch HEAD points at.
func (c *Client) CurrentBranch() (string, error) {
	ref, err := c.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !ref.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", ref.Hash().String()[:8])
	}
	return ref.Name().Short(), nil
}

// UntrackedFiles returns the sorted paths of files present in the working
// tree but unknown to git. A non-empty result fails the publish precondition.
func (c *Client) UntrackedFiles() ([]string, error) {
	worktree, err := c.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree status: %w", err)
	}

	var untracked []string
	for path, fileStatus := range status {
		if fileStatus.Worktree == git.Untracked {
			untracked = append(untracked, path)
		}
	}
	sort.Strings(untracked)
	return untracked, nil
}

// Checkout switches the working tree to the named local branch.
func (c *Client) Checkout(branch string) error {
	worktree, err := c.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	slog.Debug("Checking out branch", logfields.Branch(branch), logfields.Path(c.path))

	err = worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
	})
	if err != nil {
		return fmt.Errorf("failed to checkout %s: %w", branch, err)
	}
	return nil
}

// CommitAll stages every change in the working tree and commits it with the
// given message. Committer identity comes from the repository/global git
// config, matching command-line git. A clean tree yields NothingToCommitError.
func (c *Client) CommitAll(message string) (string, error) {
	worktree, err := c.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("failed to stage changes: %w", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			branch, _ := c.CurrentBranch()
			return "", &NothingToCommitError{Branch: branch}
		}
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	slog.Info("Committed changes", slog.String("commit", hash.String()[:8]))
	return hash.String(), nil
}

// Push pushes the named local branch to the remote. An already up-to-date
// remote counts as success, mirroring command-line git's exit status.
func (c *Client) Push(ctx context.Context, remote, branch string) error {
	refSpec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))

	slog.Debug("Pushing branch", logfields.Branch(branch), logfields.Remote(remote))

	err := c.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		slog.Info("Remote already up to date", logfields.Branch(branch), logfields.Remote(remote))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to push %s to %s: %w", branch, remote, err)
	}
	return nil
}
