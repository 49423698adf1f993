package gitops

import (
	"fmt"
	"strings"
)

// Typed errors enabling structured classification without string parsing upstream.

// UntrackedFilesError reports the precondition violation: the working tree
// contains paths git does not know about.
type UntrackedFilesError struct{ Paths []string }

func (e *UntrackedFilesError) Error() string {
	return fmt.Sprintf("working tree has %d untracked file(s): %s", len(e.Paths), strings.Join(e.Paths, ", "))
}

// MergeConflictError reports a merge that could not be completed cleanly.
// The workspace is left mid-merge for manual resolution.
type MergeConflictError struct {
	Branch string
	Output string
	Err    error
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge of %s failed: %v", e.Branch, e.Err)
}
func (e *MergeConflictError) Unwrap() error { return e.Err }

// NothingToCommitError reports a commit attempt with a clean staging area.
type NothingToCommitError struct{ Branch string }

func (e *NothingToCommitError) Error() string {
	return fmt.Sprintf("nothing to commit on %s", e.Branch)
}
