package orchestrator

import "errors"

var ErrUnknownMode = errors.New("orchestrator: mode is not one of direct, sandboxed, branched")
