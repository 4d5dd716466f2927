package store

import "errors"

// Sentinel errors for the store package. Using sentinels instead of
// ad-hoc fmt.Errorf allows callers to match with errors.Is.
var (
	// ErrBlockedIO is returned when exclusive-lock acquisition exhausts
	// its retry budget (spec.md §4.A, §7).
	ErrBlockedIO = errors.New("store: blocked on exclusive lock after retries")

	// ErrInvalidContent is returned when audits.json or events.json
	// exists but fails to parse as JSON (spec.md §7: format failure).
	ErrInvalidContent = errors.New("store: corrupt content, no auto-repair")

	// ErrAuditNotFound is returned when an update targets a missing audit.
	ErrAuditNotFound = errors.New("store: audit not found")

	// ErrNoHomeDir is returned when the user-home default cannot be
	// resolved and no other root candidate applies.
	ErrNoHomeDir = errors.New("store: could not resolve user home directory")
)
