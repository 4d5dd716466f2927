// Package model holds the data types shared across phaser's storage,
// event-log, and orchestration layers: audits and events.
package model

import "time"

// AuditStatus is the lifecycle state of an Audit.
type AuditStatus string

const (
	AuditPending    AuditStatus = "pending"
	AuditInProgress AuditStatus = "in_progress"
	AuditCompleted  AuditStatus = "completed"
	AuditAbandoned  AuditStatus = "abandoned"
	AuditFailed     AuditStatus = "failed"
)

// IsTerminal reports whether the status is one an Audit cannot leave.
func (s AuditStatus) IsTerminal() bool {
	switch s {
	case AuditCompleted, AuditAbandoned, AuditFailed:
		return true
	default:
		return false
	}
}

// Audit identifies one multi-phase audit pass over a project tree.
type Audit struct {
	ID      string      `json:"id" yaml:"id"`
	Project string      `json:"project" yaml:"project"`
	Slug    string      `json:"slug" yaml:"slug"`
	Date    string      `json:"date" yaml:"date"` // ISO date, e.g. 2026-07-31
	Status  AuditStatus `json:"status" yaml:"status"`
}

// Validate checks the required-field invariant enforced at insert time.
func (a *Audit) Validate() error {
	if a.ID == "" {
		return ErrAuditIDRequired
	}
	if a.Project == "" {
		return ErrAuditProjectRequired
	}
	if a.Slug == "" {
		return ErrAuditSlugRequired
	}
	if a.Date == "" {
		return ErrAuditDateRequired
	}
	switch a.Status {
	case AuditPending, AuditInProgress, AuditCompleted, AuditAbandoned, AuditFailed:
	default:
		return ErrAuditStatusInvalid
	}
	return nil
}

// EventType is the closed enumeration of the 12 event kinds the log
// understands (spec.md §3, Event).
type EventType string

const (
	EventAuditCreated     EventType = "audit_created"
	EventAuditCompleted   EventType = "audit_completed"
	EventAuditAbandoned   EventType = "audit_abandoned"
	EventAuditFailed      EventType = "audit_failed"
	EventPhaseStarted     EventType = "phase_started"
	EventPhaseCompleted   EventType = "phase_completed"
	EventPhaseFailed      EventType = "phase_failed"
	EventVerificationPass EventType = "verification_passed"
	EventVerificationFail EventType = "verification_failed"
	EventFileCreated      EventType = "file_created"
	EventFileModified     EventType = "file_modified"
	EventFileDeleted      EventType = "file_deleted"
)

// AllEventTypes returns the closed set of recognized event kinds.
func AllEventTypes() []EventType {
	return []EventType{
		EventAuditCreated, EventAuditCompleted,
		EventAuditAbandoned, EventAuditFailed,
		EventPhaseStarted, EventPhaseCompleted, EventPhaseFailed,
		EventVerificationPass, EventVerificationFail,
		EventFileCreated, EventFileModified, EventFileDeleted,
	}
}

// IsValid reports whether t is one of the closed set of event kinds.
func (t EventType) IsValid() bool {
	for _, k := range AllEventTypes() {
		if k == t {
			return true
		}
	}
	return false
}

// Event is an immutable record of audit or phase activity.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	AuditID   string         `json:"audit_id"`
	Phase     *int           `json:"phase,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Validate checks the required-field invariant enforced at append time.
func (e *Event) Validate() error {
	if e.ID == "" {
		return ErrEventIDRequired
	}
	if !e.Type.IsValid() {
		return ErrEventTypeInvalid
	}
	if e.AuditID == "" {
		return ErrEventAuditIDRequired
	}
	if e.Timestamp.IsZero() {
		return ErrEventTimestampRequired
	}
	if e.Phase != nil && *e.Phase < 1 {
		return ErrEventPhaseInvalid
	}
	return nil
}
