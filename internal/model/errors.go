package model

import "errors"

// Sentinel errors for the model package. Using sentinels instead of
// ad-hoc fmt.Errorf allows callers to match with errors.Is.
var (
	ErrAuditIDRequired      = errors.New("audit: id is required")
	ErrAuditProjectRequired = errors.New("audit: project is required")
	ErrAuditSlugRequired    = errors.New("audit: slug is required")
	ErrAuditDateRequired    = errors.New("audit: date is required")
	ErrAuditStatusInvalid   = errors.New("audit: status is not a recognized value")

	ErrEventIDRequired        = errors.New("event: id is required")
	ErrEventTypeInvalid       = errors.New("event: type is not a recognized value")
	ErrEventAuditIDRequired   = errors.New("event: audit_id is required")
	ErrEventTimestampRequired = errors.New("event: timestamp is required")
	ErrEventPhaseInvalid      = errors.New("event: phase must be >= 1 when set")
)
