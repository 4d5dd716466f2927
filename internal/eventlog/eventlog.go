// Package eventlog wraps the store's event file with a typed emit
// operation, in-process subscribers, and replay, per spec.md §4.B.
package eventlog

import (
	"reflect"
	"sync"
	"time"

	"github.com/phaser-dev/phaser/internal/model"
	"github.com/phaser-dev/phaser/internal/store"
)

// Subscriber is notified of each emitted event in program order.
type Subscriber func(model.Event)

// Log is the append-only typed event stream over a Store.
type Log struct {
	store *store.Store

	mu          sync.Mutex
	subscribers []Subscriber
	subscribed  map[uintptr]bool
}

// New returns a Log backed by s.
func New(s *store.Store) *Log {
	return &Log{store: s}
}

// Emit stamps a fresh UUID and current UTC timestamp onto e, appends it
// to the store, and dispatches to subscribers in registration order.
// Subscriber panics/errors are swallowed so one bad subscriber cannot
// starve emission (spec.md §4.B, §7, §9).
func (l *Log) Emit(auditID string, eventType model.EventType, phase *int, payload map[string]any) (model.Event, error) {
	e := model.Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		AuditID:   auditID,
		Phase:     phase,
		Payload:   payload,
	}
	stored, err := l.store.AppendEvent(e)
	if err != nil {
		return model.Event{}, err
	}
	l.dispatch(stored)
	return stored, nil
}

func (l *Log) dispatch(e model.Event) {
	l.mu.Lock()
	subs := append([]Subscriber(nil), l.subscribers...)
	l.mu.Unlock()

	for _, sub := range subs {
		safeCall(sub, e)
	}
}

// safeCall invokes sub, recovering from a panic so it cannot abort
// emission or block later subscribers.
func safeCall(sub Subscriber, e model.Event) {
	defer func() { _ = recover() }()
	sub(e)
}

// Subscribe registers fn to be called on every future Emit. Subscribing
// the same function value twice is a no-op (spec.md §4.B), detected by
// the func value's entry-point pointer via reflect.ValueOf(fn).Pointer()
// — the standard approximate func-identity idiom, since Go functions
// are not otherwise comparable. Two distinct closures sharing the same
// underlying function literal are therefore treated as the same
// subscriber; this is a documented approximation, not by-value identity.
func (l *Log) Subscribe(fn Subscriber) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := reflect.ValueOf(fn).Pointer()
	if l.subscribed == nil {
		l.subscribed = make(map[uintptr]bool)
	}
	if l.subscribed[key] {
		return
	}
	l.subscribed[key] = true
	l.subscribers = append(l.subscribers, fn)
}

// Replay loads events for auditID and dispatches them to cb in
// timestamp order. It fails loudly if the store cannot be read, per
// spec.md §4.B (unlike live Emit, whose subscriber failures are
// swallowed).
func (l *Log) Replay(auditID string, cb func(model.Event)) error {
	events, err := l.store.QueryEvents(store.EventFilter{AuditID: auditID})
	if err != nil {
		return err
	}
	for _, e := range events {
		cb(e)
	}
	return nil
}
