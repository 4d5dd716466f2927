package branch

import "errors"

var (
	ErrAlreadyActive          = errors.New("branch: a branch context is already active for this root")
	ErrUncommittedChanges     = errors.New("branch: uncommitted changes present, commit or stash first")
	ErrNoActiveContext        = errors.New("branch: no active branch context for this root")
	ErrBranchAlreadyExists    = errors.New("branch: phase branch name already exists")
	ErrNoPhaseBranchesToMerge = errors.New("branch: no phase branches recorded to merge")
	ErrUnknownMergeStrategy   = errors.New("branch: merge strategy is not recognized")
)
