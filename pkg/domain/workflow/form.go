// Package workflow models the lifecycle of one audit form session.
package workflow

import (
	"errors"
	"fmt"
	"sort"

	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit integration.
// These must remain as untyped string constants for statekit.StateID compatibility.
const (
	StateIdle      = "idle"
	StateLoaded    = "loaded"
	StateSubmitted = "submitted"
	StateAudited   = "audited"
	StateProceeded = "proceeded"
)

// Form events.
const (
	EventLoad     = "load"
	EventClear    = "clear"
	EventSubmit   = "submit"
	EventFail     = "fail"
	EventComplete = "complete"
	EventProceed  = "proceed"
	EventReset    = "reset"
)

// ErrInvalidTransition is matched by every TransitionError.
var ErrInvalidTransition = errors.New("invalid form transition")

// TransitionError reports an event that is not allowed in the current state.
type TransitionError struct {
	Event string
	State string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("the action '%s' is not allowed while the form is in the '%s' state", e.Event, e.State)
}

// Is allows errors.Is to work with TransitionError.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// transitions is the source of truth for valid moves; the statekit machine
// below mirrors it.
var transitions = map[string]map[string]string{
	StateIdle: {
		EventLoad:  StateLoaded,
		EventReset: StateIdle,
	},
	StateLoaded: {
		EventLoad:   StateLoaded,
		EventClear:  StateIdle,
		EventSubmit: StateSubmitted,
		EventReset:  StateIdle,
	},
	StateSubmitted: {
		EventFail:     StateLoaded,
		EventComplete: StateAudited,
		EventReset:    StateIdle,
	},
	StateAudited: {
		EventLoad:    StateLoaded,
		EventClear:   StateIdle,
		EventSubmit:  StateSubmitted,
		EventProceed: StateProceeded,
		EventReset:   StateIdle,
	},
	StateProceeded: {
		EventReset: StateIdle,
	},
}

// FormContext carries the session the machine belongs to.
type FormContext struct {
	SessionID string
}

// FormMachine drives the form through its states.
type FormMachine struct {
	interpreter *statekit.Interpreter[FormContext]
}

// NewFormMachine builds a machine starting in the idle state.
func NewFormMachine(sessionID string) (*FormMachine, error) {
	builder := statekit.NewMachine[FormContext]("form-machine").
		WithInitial(statekit.StateID(StateIdle)).
		WithContext(FormContext{SessionID: sessionID})

	builder.State(StateIdle).
		On(EventLoad).Target(StateLoaded).
		On(EventReset).Target(StateIdle).
		Done()

	builder.State(StateLoaded).
		On(EventLoad).Target(StateLoaded).
		On(EventClear).Target(StateIdle).
		On(EventSubmit).Target(StateSubmitted).
		On(EventReset).Target(StateIdle).
		Done()

	builder.State(StateSubmitted).
		On(EventFail).Target(StateLoaded).
		On(EventComplete).Target(StateAudited).
		On(EventReset).Target(StateIdle).
		Done()

	builder.State(StateAudited).
		On(EventLoad).Target(StateLoaded).
		On(EventClear).Target(StateIdle).
		On(EventSubmit).Target(StateSubmitted).
		On(EventProceed).Target(StateProceeded).
		On(EventReset).Target(StateIdle).
		Done()

	builder.State(StateProceeded).
		On(EventReset).Target(StateIdle).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build form machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &FormMachine{interpreter: interpreter}, nil
}

// Fire applies an event. Events that are not valid in the current state
// return a TransitionError and leave the state unchanged.
func (m *FormMachine) Fire(event string) error {
	before := m.Current()
	target, ok := transitions[before][event]
	if !ok {
		return &TransitionError{Event: event, State: before}
	}

	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if after := m.Current(); after != target {
		return fmt.Errorf("form machine moved to %q on %q, expected %q", after, event, target)
	}
	return nil
}

// Current returns the current state.
func (m *FormMachine) Current() string {
	return string(m.interpreter.State().Value)
}

// Can reports whether event is valid in the current state.
func (m *FormMachine) Can(event string) bool {
	_, ok := transitions[m.Current()][event]
	return ok
}

// ValidEvents returns the events allowed in the current state, sorted.
func (m *FormMachine) ValidEvents() []string {
	events := make([]string, 0, len(transitions[m.Current()]))
	for e := range transitions[m.Current()] {
		events = append(events, e)
	}
	sort.Strings(events)
	return events
}
