package workflow

import (
	"errors"
	"testing"
)

func newMachine(t *testing.T) *FormMachine {
	t.Helper()
	m, err := NewFormMachine("session-1")
	if err != nil {
		t.Fatalf("NewFormMachine: %v", err)
	}
	return m
}

func TestFormMachine_HappyPath(t *testing.T) {
	m := newMachine(t)
	if m.Current() != StateIdle {
		t.Fatalf("expected idle, got %s", m.Current())
	}

	steps := []struct {
		event string
		want  string
	}{
		{EventLoad, StateLoaded},
		{EventLoad, StateLoaded},
		{EventSubmit, StateSubmitted},
		{EventComplete, StateAudited},
		{EventProceed, StateProceeded},
		{EventReset, StateIdle},
	}

	for _, s := range steps {
		if err := m.Fire(s.event); err != nil {
			t.Fatalf("Fire(%s): %v", s.event, err)
		}
		if m.Current() != s.want {
			t.Fatalf("after %s: expected %s, got %s", s.event, s.want, m.Current())
		}
	}
}

func TestFormMachine_FailureReturnsToLoaded(t *testing.T) {
	m := newMachine(t)
	for _, e := range []string{EventLoad, EventSubmit, EventFail} {
		if err := m.Fire(e); err != nil {
			t.Fatalf("Fire(%s): %v", e, err)
		}
	}
	if m.Current() != StateLoaded {
		t.Fatalf("expected loaded, got %s", m.Current())
	}
	if !m.Can(EventSubmit) {
		t.Error("form should accept a new submission after a failure")
	}
}

func TestFormMachine_InvalidEvent(t *testing.T) {
	m := newMachine(t)

	err := m.Fire(EventSubmit)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	var te *TransitionError
	if !errors.As(err, &te) || te.State != StateIdle || te.Event != EventSubmit {
		t.Errorf("unexpected transition error: %v", err)
	}
	if m.Current() != StateIdle {
		t.Errorf("state changed after invalid event: %s", m.Current())
	}

	if err := m.Fire(EventProceed); err == nil {
		t.Error("proceed before audit should fail")
	}
}

func TestFormMachine_ValidEvents(t *testing.T) {
	m := newMachine(t)
	got := m.ValidEvents()
	if len(got) != 2 || got[0] != EventLoad || got[1] != EventReset {
		t.Errorf("unexpected idle events: %v", got)
	}
}
