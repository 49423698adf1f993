package gitops

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/styleguide-tools/stylepub/internal/logfields"
)

// MergeFrom merges the named branch into the currently checked out branch by
// invoking the git binary. go-git only supports fast-forward merges, and the
// publishing branch permanently diverges from the primary branch by its
// generated commits, so a real merge is required here.
//
// On conflict the working tree is left mid-merge; callers surface the failure
// to the operator rather than attempting rollback.
func (c *Client) MergeFrom(ctx context.Context, branch string) error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git binary not found on PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, "git", "merge", "--no-edit", branch)
	cmd.Dir = c.path
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Merging branch", logfields.Branch(branch), logfields.Path(c.path))

	err := cmd.Run()
	if err == nil {
		return nil
	}

	output := strings.TrimSpace(stdout.String() + "\n" + stderr.String())
	if strings.Contains(output, "CONFLICT") || strings.Contains(output, "Automatic merge failed") {
		return &MergeConflictError{Branch: branch, Output: output, Err: err}
	}
	if output != "" {
		return fmt.Errorf("git merge %s failed: %w: %s", branch, err, output)
	}
	return fmt.Errorf("git merge %s failed: %w", branch, err)
}
