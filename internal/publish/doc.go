// Package publish orchestrates the documentation publish run: a fixed,
// strictly ordered sequence of fallible steps with early abort on the first
// failure. There is no rollback; a failure after checkout deliberately leaves
// the workspace wherever it is (possibly on the publishing branch, possibly
// mid-merge) so the operator can inspect and resolve manually.
package publish
