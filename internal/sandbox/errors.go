package sandbox

import "errors"

var (
	ErrNotVCSRoot      = errors.New("sandbox: root is not a version-control working tree")
	ErrAlreadyActive   = errors.New("sandbox: a sandbox context is already active for this root")
	ErrNoActiveSandbox = errors.New("sandbox: no active sandbox context for this root")
)
