// Package gitops wraps the local repository operations a publish run needs:
// branch inspection, the untracked-file guard, checkout, merge, commit and
// push. Everything except merge goes through go-git; merges shell out to the
// git binary because go-git does not implement true three-way merges.
package gitops
