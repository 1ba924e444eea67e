package core

import (
	"fmt"

	"github.com/comalice/chartkit/internal/primitives"
)

// StateHandler is a host object living for one activation of a state. A new
// handler is made each time the state is entered: Entered runs before the
// entry actions, Exited after the exit actions, and the handler is then
// dropped. Errors degrade the instance like action errors.
type StateHandler interface {
	Entered(sc *Scope) error
	Exited(sc *Scope) error
}

// HandlerFactory makes the handler for one activation.
type HandlerFactory func() StateHandler

// HandlerBinder is implemented by binders that also resolve handler names.
type HandlerBinder interface {
	Handler(name string) (HandlerFactory, error)
}

type boundHandler struct {
	name    string
	factory HandlerFactory
}

type liveHandler struct {
	name string
	h    StateHandler
}

func bindHandler(ref primitives.HandlerRef, label string, binder Binder) (boundHandler, error) {
	switch h := ref.(type) {
	case nil:
		return boundHandler{}, fmt.Errorf("%s: nil handler", label)
	case HandlerFactory:
		return boundHandler{name: label, factory: h}, nil
	case func() StateHandler:
		return boundHandler{name: label, factory: h}, nil
	case string:
		hb, ok := binder.(HandlerBinder)
		if !ok {
			return boundHandler{}, fmt.Errorf("%s: handler %q needs a binder that resolves handlers", label, h)
		}
		f, err := hb.Handler(h)
		if err != nil {
			return boundHandler{}, fmt.Errorf("%s: %w", label, err)
		}
		if f == nil {
			return boundHandler{}, fmt.Errorf("%s: binder returned no handler for %q", label, h)
		}
		return boundHandler{name: h, factory: f}, nil
	default:
		return boundHandler{}, fmt.Errorf("%s: unsupported handler type %T", label, ref)
	}
}

func newHandler(f HandlerFactory) (h StateHandler, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
	}()
	if h = f(); h == nil {
		return nil, fmt.Errorf("factory returned no handler")
	}
	return h, nil
}

// startHandlers makes the handlers of the just activated state s and runs
// their Entered hooks in declaration order.
func (in *Instance) startHandlers(step *Microstep, s StateIndex, evt primitives.Event) error {
	n := &in.def.states[s]
	if len(n.handlers) == 0 {
		return nil
	}
	sc := &Scope{inst: in, event: evt, phase: PhaseEntry, state: n.id}
	for _, b := range n.handlers {
		fail := func(err error) error {
			return &ActionExecutionError{Phase: PhaseEntry, State: n.id, Transition: -1, Action: b.name, Err: err}
		}
		h, err := newHandler(b.factory)
		if err != nil {
			return fail(err)
		}
		in.handlers[s] = append(in.handlers[s], liveHandler{name: b.name, h: h})
		if created := in.opts.handlerCreated; created != nil {
			in.safeObserve(func() { created(n.id, h) })
		}
		step.Actions = append(step.Actions, ActionRecord{Phase: PhaseEntry, State: n.id, Transition: -1, Action: b.name})
		if err := runAction(h.Entered, sc); err != nil {
			return fail(err)
		}
	}
	return nil
}

// stopHandlers drops the live handlers of s, running their Exited hooks when
// run is set.
func (in *Instance) stopHandlers(step *Microstep, s StateIndex, evt primitives.Event, run bool) []error {
	live := in.handlers[s]
	if len(live) == 0 {
		return nil
	}
	delete(in.handlers, s)
	if !run {
		return nil
	}
	id := in.def.states[s].id
	sc := &Scope{inst: in, event: evt, phase: PhaseExit, state: id}
	var errs []error
	for _, lh := range live {
		step.Actions = append(step.Actions, ActionRecord{Phase: PhaseExit, State: id, Transition: -1, Action: lh.name})
		if err := runAction(lh.h.Exited, sc); err != nil {
			errs = append(errs, &ActionExecutionError{Phase: PhaseExit, State: id, Transition: -1, Action: lh.name, Err: err})
		}
	}
	return errs
}
