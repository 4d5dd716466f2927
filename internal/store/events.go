package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/phaser-dev/phaser/internal/model"
)

const eventsFileVersion = 1

type eventsFile struct {
	Version int           `json:"version"`
	Events  []model.Event `json:"events"`
}

func (s *Store) eventsPath() string { return s.Root + "/events.json" }

func (s *Store) loadEvents() (*eventsFile, error) {
	data, err := ReadLocked(s.eventsPath())
	if os.IsNotExist(err) {
		return &eventsFile{Version: eventsFileVersion}, nil
	}
	if err != nil {
		return nil, err
	}
	var f eventsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return &f, nil
}

func (s *Store) saveEvents(f *eventsFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return AtomicWrite(s.eventsPath(), data)
}

// AppendEvent validates and appends an event, generating an ID and
// timestamp if unset (spec.md §3, §4.B).
func (s *Store) AppendEvent(e model.Event) (model.Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := e.Validate(); err != nil {
		return model.Event{}, err
	}

	f, err := s.loadEvents()
	if err != nil {
		return model.Event{}, err
	}
	f.Events = append(f.Events, e)
	if err := s.saveEvents(f); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// EventFilter narrows QueryEvents by the conjunction of its non-zero
// fields (spec.md §4.A: Events.Query).
type EventFilter struct {
	AuditID string
	Type    model.EventType
	Since   time.Time
}

func (flt EventFilter) matches(e model.Event) bool {
	if flt.AuditID != "" && e.AuditID != flt.AuditID {
		return false
	}
	if flt.Type != "" && e.Type != flt.Type {
		return false
	}
	if !flt.Since.IsZero() && e.Timestamp.Before(flt.Since) {
		return false
	}
	return true
}

// QueryEvents returns events matching filter, sorted ascending by
// timestamp (stable: ties broken by original append order since each
// event carries a unique UUID — spec.md §5, §8 invariant 4).
func (s *Store) QueryEvents(filter EventFilter) ([]model.Event, error) {
	f, err := s.loadEvents()
	if err != nil {
		return nil, err
	}
	var out []model.Event
	for _, e := range f.Events {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// ClearEvents removes events with timestamp before cutoff. A zero
// cutoff clears everything. This is the only mutation permitted on the
// append-only event log (spec.md §3, Event invariant).
func (s *Store) ClearEvents(cutoff time.Time) error {
	f, err := s.loadEvents()
	if err != nil {
		return err
	}
	if cutoff.IsZero() {
		f.Events = nil
		return s.saveEvents(f)
	}
	var kept []model.Event
	for _, e := range f.Events {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	f.Events = kept
	return s.saveEvents(f)
}
