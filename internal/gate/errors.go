package gate

import "errors"

var (
	ErrMissingStdinFlag = errors.New("gate: --stdin flag is required")
	ErrInvalidJSON      = errors.New("gate: envelope is not valid JSON")
)
