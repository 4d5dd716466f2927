package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/phaser-dev/phaser/internal/model"
)

const auditsFileVersion = 1

// auditsFile is the top-level shape of audits.json (spec.md §6).
type auditsFile struct {
	Version int            `json:"version"`
	Audits  []model.Audit `json:"audits"`
}

// Store is the process-safe key-addressed persistence layer described
// in spec.md §4.A. All mutation goes through AtomicWrite; all reads take
// a shared lock.
type Store struct {
	Root string
}

// New returns a Store rooted at root. Callers resolve root via
// ResolveRoot first.
func New(root string) *Store {
	return &Store{Root: root}
}

func (s *Store) auditsPath() string { return s.Root + "/audits.json" }

func (s *Store) loadAudits() (*auditsFile, error) {
	data, err := ReadLocked(s.auditsPath())
	if os.IsNotExist(err) {
		return &auditsFile{Version: auditsFileVersion}, nil
	}
	if err != nil {
		return nil, err
	}
	var f auditsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return &f, nil
}

func (s *Store) saveAudits(f *auditsFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return AtomicWrite(s.auditsPath(), data)
}

// InsertAudit appends a with a generated UUID if a.ID is empty, after
// validating required fields (spec.md §3, Audit).
func (s *Store) InsertAudit(a model.Audit) (model.Audit, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = model.AuditPending
	}
	if err := a.Validate(); err != nil {
		return model.Audit{}, err
	}

	f, err := s.loadAudits()
	if err != nil {
		return model.Audit{}, err
	}
	f.Audits = append(f.Audits, a)
	if err := s.saveAudits(f); err != nil {
		return model.Audit{}, err
	}
	return a, nil
}

// UpdateAudit rewrites the full audits file after mutating the record
// matching updated.ID. Terminal-status audits may still be updated by
// this low-level call; callers enforce the immutable-after-terminal
// invariant (orchestrator does not call UpdateAudit once terminal).
func (s *Store) UpdateAudit(updated model.Audit) error {
	if err := updated.Validate(); err != nil {
		return err
	}
	f, err := s.loadAudits()
	if err != nil {
		return err
	}
	found := false
	for i := range f.Audits {
		if f.Audits[i].ID == updated.ID {
			f.Audits[i] = updated
			found = true
			break
		}
	}
	if !found {
		return ErrAuditNotFound
	}
	return s.saveAudits(f)
}

// GetAudit returns the audit with the given ID.
func (s *Store) GetAudit(id string) (model.Audit, error) {
	f, err := s.loadAudits()
	if err != nil {
		return model.Audit{}, err
	}
	for _, a := range f.Audits {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Audit{}, ErrAuditNotFound
}

// ListAudits returns audits, optionally filtered by project name.
func (s *Store) ListAudits(project string) ([]model.Audit, error) {
	f, err := s.loadAudits()
	if err != nil {
		return nil, err
	}
	if project == "" {
		return f.Audits, nil
	}
	var out []model.Audit
	for _, a := range f.Audits {
		if a.Project == project {
			out = append(out, a)
		}
	}
	return out, nil
}
