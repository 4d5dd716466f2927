package vcs

import "errors"

// Sentinel errors for git subprocess calls, matched with errors.Is by
// callers in the sandbox and branch engines.
var (
	ErrNotRepo         = errors.New("vcs: not a git working tree")
	ErrBranchExists    = errors.New("vcs: branch already exists")
	ErrCommandTimedOut = errors.New("vcs: git command timed out")
	ErrCommandFailed   = errors.New("vcs: git command failed")
)
