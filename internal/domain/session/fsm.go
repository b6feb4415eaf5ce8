package session

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Status represents the save/cancel lifecycle state of a session.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusError  Status = "error"
)

const (
	eventSubmit = "submit"
	eventSaved  = "saved"
	eventFailed = "failed"
)

type lifecycleContext struct {
	SessionID string
}

// lifecycle wraps the statekit machine guarding the submit flow: submit is
// only accepted from idle or error, so a save already in flight can never
// be doubled, and a failed save stays retryable.
type lifecycle struct {
	interpreter *statekit.Interpreter[lifecycleContext]
}

func newLifecycle(initial Status, sessionID string) (*lifecycle, error) {
	builder := statekit.NewMachine[lifecycleContext]("draft-lifecycle").
		WithInitial(statekit.StateID(initial)).
		WithContext(lifecycleContext{SessionID: sessionID})

	builder.State(statekit.StateID(StatusIdle)).
		On(eventSubmit).Target(statekit.StateID(StatusSaving)).
		Done()

	builder.State(statekit.StateID(StatusSaving)).
		On(eventSaved).Target(statekit.StateID(StatusIdle)).
		On(eventFailed).Target(statekit.StateID(StatusError)).
		Done()

	builder.State(statekit.StateID(StatusError)).
		On(eventSubmit).Target(statekit.StateID(StatusSaving)).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build lifecycle machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &lifecycle{interpreter: interpreter}, nil
}

// transition attempts to fire an event; the state staying put means the
// event was not valid for the current state.
func (l *lifecycle) transition(event string) error {
	before := l.current()
	l.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := l.current()

	if before != after {
		return nil
	}
	return fmt.Errorf("event %q is not allowed while the session is %q", event, before)
}

func (l *lifecycle) current() Status {
	return Status(l.interpreter.State().Value)
}
