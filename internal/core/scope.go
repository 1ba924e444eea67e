package core

import (
	"fmt"

	"github.com/comalice/chartkit/internal/primitives"
)

// Action is an entry, exit, initial or transition action. A returned error
// aborts the microstep with an ActionExecutionError.
type Action func(sc *Scope) error

// Guard decides whether a matched transition is enabled. It must not mutate
// anything; a returned error counts as false.
type Guard func(evt primitives.Event, data primitives.ContextView) (bool, error)

// Binder resolves string identifiers found in a MachineConfig to functions.
type Binder interface {
	Action(name string) (Action, error)
	Guard(expr string) (Guard, error)
}

// Phase tells an action which part of the microstep it runs in.
type Phase uint8

const (
	PhaseExit Phase = iota
	PhaseTransition
	PhaseEntry
	PhaseInitial
)

func (p Phase) String() string {
	switch p {
	case PhaseExit:
		return "exit"
	case PhaseTransition:
		return "transition"
	case PhaseEntry:
		return "entry"
	case PhaseInitial:
		return "initial"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// MarshalText renders the phase name.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Scope is what an action sees while it runs.
type Scope struct {
	inst  *Instance
	event primitives.Event
	phase Phase
	state string
}

// Event returns the event that triggered the microstep. It is empty during
// start and stop.
func (s *Scope) Event() primitives.Event { return s.event }

// Data returns the instance's extended context.
func (s *Scope) Data() *primitives.Context { return s.inst.data }

// Phase returns the phase the action runs in.
func (s *Scope) Phase() Phase { return s.phase }

// State returns the ID of the state owning the action, empty for transition
// actions.
func (s *Scope) State() string { return s.state }

// Instance returns the running instance. Calling Send on it from an action
// fails with ReentrancyError; use Raise.
func (s *Scope) Instance() *Instance { return s.inst }

// Raise appends an internal event processed after the current microstep.
func (s *Scope) Raise(eventType string, data any) {
	s.inst.raise(primitives.NewEvent(eventType, data))
}

func bindAction(ref primitives.ActionRef, label string, binder Binder) (boundAction, error) {
	switch a := ref.(type) {
	case nil:
		return boundAction{}, fmt.Errorf("%s: nil action", label)
	case Action:
		return boundAction{name: label, fn: a}, nil
	case func(*Scope) error:
		return boundAction{name: label, fn: a}, nil
	case func(*Scope):
		return boundAction{name: label, fn: func(sc *Scope) error { a(sc); return nil }}, nil
	case func():
		return boundAction{name: label, fn: func(*Scope) error { a(); return nil }}, nil
	case string:
		if binder == nil {
			return boundAction{}, fmt.Errorf("%s: action %q needs a binder", label, a)
		}
		fn, err := binder.Action(a)
		if err != nil {
			return boundAction{}, fmt.Errorf("%s: %w", label, err)
		}
		if fn == nil {
			return boundAction{}, fmt.Errorf("%s: binder returned no action for %q", label, a)
		}
		return boundAction{name: a, fn: fn}, nil
	default:
		return boundAction{}, fmt.Errorf("%s: unsupported action type %T", label, ref)
	}
}

func bindGuard(ref primitives.GuardRef, label string, binder Binder) (*boundGuard, error) {
	switch g := ref.(type) {
	case nil:
		return nil, nil
	case Guard:
		return &boundGuard{name: label, fn: g}, nil
	case func(primitives.Event, primitives.ContextView) (bool, error):
		return &boundGuard{name: label, fn: g}, nil
	case func(primitives.Event, primitives.ContextView) bool:
		return &boundGuard{name: label, fn: func(e primitives.Event, v primitives.ContextView) (bool, error) {
			return g(e, v), nil
		}}, nil
	case string:
		if binder == nil {
			return nil, fmt.Errorf("%s: guard %q needs a binder", label, g)
		}
		fn, err := binder.Guard(g)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		if fn == nil {
			return nil, fmt.Errorf("%s: binder returned no guard for %q", label, g)
		}
		return &boundGuard{name: g, fn: fn}, nil
	default:
		return nil, fmt.Errorf("%s: unsupported guard type %T", label, ref)
	}
}

func runAction(fn Action, sc *Scope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
	}()
	return fn(sc)
}

func evalGuard(fn Guard, evt primitives.Event, view primitives.ContextView) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, panicError{value: r}
		}
	}()
	return fn(evt, view)
}
