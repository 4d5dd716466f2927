package eventlog

import (
	"testing"

	"github.com/phaser-dev/phaser/internal/model"
	"github.com/phaser-dev/phaser/internal/store"
)

func TestEmitDispatchesToSubscribers(t *testing.T) {
	l := New(store.New(t.TempDir()))

	var got []model.Event
	l.Subscribe(func(e model.Event) { got = append(got, e) })

	if _, err := l.Emit("audit-1", model.EventAuditCreated, nil, nil); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(got) != 1 || got[0].Type != model.EventAuditCreated {
		t.Fatalf("expected subscriber to observe emitted event, got %+v", got)
	}
}

func TestEmitSwallowsPanickingSubscriber(t *testing.T) {
	l := New(store.New(t.TempDir()))

	var secondCalled bool
	l.Subscribe(func(model.Event) { panic("boom") })
	l.Subscribe(func(model.Event) { secondCalled = true })

	if _, err := l.Emit("audit-1", model.EventAuditCreated, nil, nil); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !secondCalled {
		t.Fatal("expected second subscriber to run despite first panicking")
	}
}

func TestSubscribeSameFunctionValueTwiceIsNoOp(t *testing.T) {
	l := New(store.New(t.TempDir()))

	var calls int
	record := func(model.Event) { calls++ }

	l.Subscribe(record)
	l.Subscribe(record)

	if _, err := l.Emit("audit-1", model.EventAuditCreated, nil, nil); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected duplicate Subscribe of the same func value to be a no-op, got %d calls", calls)
	}
}

func TestReplayDispatchesInTimestampOrder(t *testing.T) {
	l := New(store.New(t.TempDir()))

	if _, err := l.Emit("audit-1", model.EventAuditCreated, nil, nil); err != nil {
		t.Fatal(err)
	}
	phase := 1
	if _, err := l.Emit("audit-1", model.EventPhaseStarted, &phase, nil); err != nil {
		t.Fatal(err)
	}

	var order []model.EventType
	if err := l.Replay("audit-1", func(e model.Event) { order = append(order, e.Type) }); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(order) != 2 || order[0] != model.EventAuditCreated || order[1] != model.EventPhaseStarted {
		t.Fatalf("unexpected replay order: %v", order)
	}
}
