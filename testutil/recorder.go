// Package testutil holds observers and adapters shared by the engine tests.
package testutil

import (
	"fmt"
	"sync"

	"github.com/comalice/chartkit/internal/core"
)

// Recorder is a core.ExtendedObserver that keeps every notification.
type Recorder struct {
	mu        sync.Mutex
	steps     []core.Microstep
	discarded []core.Discard
}

var _ core.ExtendedObserver = (*Recorder)(nil)

func (r *Recorder) OnMicrostep(step core.Microstep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

func (r *Recorder) OnEventDiscarded(d core.Discard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discarded = append(r.discarded, d)
}

// Steps returns the recorded microsteps in order.
func (r *Recorder) Steps() []core.Microstep {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Microstep(nil), r.steps...)
}

// Last returns the most recent microstep, or the zero value.
func (r *Recorder) Last() core.Microstep {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.steps) == 0 {
		return core.Microstep{}
	}
	return r.steps[len(r.steps)-1]
}

// Events returns the event type of every recorded microstep.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.steps))
	for i, s := range r.steps {
		out[i] = s.Event.Type
	}
	return out
}

// Discarded returns the discarded events in order.
func (r *Recorder) Discarded() []core.Discard {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Discard(nil), r.discarded...)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = nil
	r.discarded = nil
}

// Trace is an ordered log of labels written by test actions.
type Trace struct {
	mu      sync.Mutex
	entries []string
}

// Action returns an action that appends label.
func (t *Trace) Action(label string) core.Action {
	return func(*core.Scope) error {
		t.Add(label)
		return nil
	}
}

// Add appends label.
func (t *Trace) Add(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, label)
}

// Entries returns the labels in order.
func (t *Trace) Entries() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.entries...)
}

// Reset clears the log.
func (t *Trace) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}

// Handler returns a factory of state handlers that log "+name#n(event)" when
// entered and "-name#n" when exited, n counting activations from 1.
func (t *Trace) Handler(name string) core.HandlerFactory {
	n := 0
	return func() core.StateHandler {
		n++
		return &traceHandler{trace: t, label: fmt.Sprintf("%s#%d", name, n)}
	}
}

type traceHandler struct {
	trace *Trace
	label string
}

func (h *traceHandler) Entered(sc *core.Scope) error {
	h.trace.Add(fmt.Sprintf("+%s(%s)", h.label, sc.Event().Type))
	return nil
}

func (h *traceHandler) Exited(*core.Scope) error {
	h.trace.Add("-" + h.label)
	return nil
}
