package core

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	clog "github.com/comalice/chartkit/internal/log"
	"github.com/comalice/chartkit/internal/primitives"
)

// Instance is one running chart. It owns its configuration, history, extended
// context and internal queue; only the Definition is shared.
//
// Start, Send and Stop run a full run-to-completion cycle on the calling
// goroutine. A second call while one is in progress, whether from an action,
// an observer or another goroutine, fails with ReentrancyError. Hosts that
// send from several goroutines serialize through an Actor. Snapshot and
// Status are safe from any goroutine.
type Instance struct {
	id   string
	def  *Definition
	opts options
	log  zerolog.Logger

	busy atomic.Bool

	// Owned by the goroutine holding busy.
	seq     uint64
	cfg     *Configuration
	history *HistoryManager
	data    *primitives.Context
	queue   []primitives.Event
	// live handlers per active state, in declaration order
	handlers map[StateIndex][]liveHandler

	mu        sync.RWMutex
	status    Status
	committed Snapshot
}

func newInstance(def *Definition, opts []Option) (*Instance, error) {
	if def == nil || len(def.states) == 0 {
		return nil, &DefinitionError{Problems: []error{errors.New("definition was not compiled")}}
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	id := o.id
	if id == "" {
		id = uuid.NewString()
	}
	base := clog.WithComponent("engine")
	if o.logger != nil {
		base = *o.logger
	}
	return &Instance{
		id:   id,
		def:  def,
		opts: o,
		log: base.With().
			Str(clog.FieldInstance, id).
			Str(clog.FieldDefinition, def.id).
			Logger(),
		cfg:      newConfiguration(def),
		history:  NewHistoryManager(),
		data:     primitives.NewContextFrom(o.data),
		handlers: make(map[StateIndex][]liveHandler),
		status:   StatusRunning,
	}, nil
}

// Start creates an instance of def, enters the default configuration from the
// root running entry actions top-down, and drains the internal events they
// raise. A nil or uncompiled def yields a *DefinitionError. When the drain
// exceeds its bound the halted instance is returned with the
// *ActionLoopError.
func Start(def *Definition, opts ...Option) (*Instance, error) {
	in, err := newInstance(def, opts)
	if err != nil {
		return nil, err
	}
	in.busy.Store(true)
	defer in.busy.Store(false)

	step := in.newStep(StepStart, primitives.Event{}, false)
	plan := newEntryPlan(def, in.history)
	plan.addDescendants(0, false)
	step.Err = in.enterStates(&step, plan, primitives.Event{})
	if err := in.commit(&step); err != nil {
		return in, err
	}
	if err := in.drain(); err != nil {
		return in, err
	}
	return in, nil
}

// Resume rebuilds an instance from a snapshot taken on the same definition.
// No actions run, but every active state gets fresh handlers whose Entered
// hooks see an empty event. The snapshot's instance ID is kept unless
// WithInstanceID is given.
func Resume(def *Definition, snap Snapshot, opts ...Option) (*Instance, error) {
	if snap.InstanceID != "" {
		opts = append([]Option{WithInstanceID(snap.InstanceID)}, opts...)
	}
	in, err := newInstance(def, opts)
	if err != nil {
		return nil, err
	}
	fail := func(format string, args ...any) error {
		return &DefinitionError{Definition: def.id, Problems: []error{fmt.Errorf("resume: "+format, args...)}}
	}
	if snap.DefinitionID != def.id {
		return nil, fail("snapshot of %q cannot run on definition %q", snap.DefinitionID, def.id)
	}
	status := snap.Status
	switch status {
	case "":
		status = StatusRunning
	case StatusRunning, StatusDegraded, StatusHalted:
	case StatusStopped:
		return nil, fail("instance %s is stopped", snap.InstanceID)
	default:
		return nil, fail("unknown status %q", status)
	}

	for _, id := range snap.Active {
		s, ok := def.byID[id]
		if !ok {
			return nil, fail("unknown active state %q", id)
		}
		in.cfg.add(s)
	}
	if status == StatusRunning {
		if err := in.cfg.Verify(); err != nil {
			return nil, fail("%w", err)
		}
	}
	for owner, ids := range snap.History {
		s, ok := def.byID[owner]
		if !ok {
			return nil, fail("unknown history owner %q", owner)
		}
		rec := make([]StateIndex, 0, len(ids))
		for _, id := range ids {
			r, ok := def.byID[id]
			if !ok || !def.isDescendant(r, s) {
				return nil, fail("history of %q names foreign state %q", owner, id)
			}
			rec = append(rec, r)
		}
		in.history.Record(s, rec)
	}
	in.data.Restore(snap.Context)
	var scratch Microstep
	for _, s := range in.cfg.States() {
		if err := in.startHandlers(&scratch, s, primitives.Event{}); err != nil {
			active := in.cfg.States()
			for i := len(active) - 1; i >= 0; i-- {
				in.stopHandlers(&scratch, active[i], primitives.Event{}, true)
			}
			return nil, fmt.Errorf("resume %s: %w", in.id, err)
		}
	}
	in.seq = snap.Step
	in.status = status
	in.committed = in.buildSnapshot(status)
	return in, nil
}

// ID returns the instance ID.
func (in *Instance) ID() string { return in.id }

// Definition returns the shared definition the instance runs.
func (in *Instance) Definition() *Definition { return in.def }

// Status returns the lifecycle state after the last committed microstep.
func (in *Instance) Status() Status {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.status
}

// Snapshot returns a copy of the state after the last committed microstep.
func (in *Instance) Snapshot() Snapshot {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.committed.Clone()
}

// Send runs one run-to-completion cycle for evt: its microstep, then every
// internal event raised along the way, FIFO. An event that enables nothing is
// consumed silently. Action failures are reported to observers, not
// returned.
func (in *Instance) Send(evt primitives.Event) error {
	if !in.busy.CompareAndSwap(false, true) {
		return &ReentrancyError{Event: evt.Type}
	}
	defer in.busy.Store(false)

	if err := in.runnable(); err != nil {
		return fmt.Errorf("send %q: %w", evt.Type, err)
	}
	if err := primitives.ValidateEventName(evt.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if err := in.process(evt, false); err != nil {
		return err
	}
	return in.drain()
}

// SendType is Send for an event without payload.
func (in *Instance) SendType(eventType string) error {
	return in.Send(primitives.NewEvent(eventType, nil))
}

// Stop exits the whole configuration deepest first running exit actions, then
// discards configuration, history, context and pending internal events.
func (in *Instance) Stop() error {
	if !in.busy.CompareAndSwap(false, true) {
		return &ReentrancyError{Event: "stop"}
	}
	defer in.busy.Store(false)
	if in.status == StatusStopped {
		return ErrStopped
	}

	step := in.newStep(StepStop, primitives.Event{}, false)
	active := in.cfg.States()
	exiting := make([]StateIndex, len(active))
	for i, s := range active {
		exiting[len(active)-1-i] = s
	}
	step.Err = in.exitStates(&step, exiting, primitives.Event{}, false)
	in.cfg.clear()
	clear(in.handlers)
	in.queue = nil
	in.history.Reset()
	in.data.Clear()
	return in.commit(&step)
}

func (in *Instance) runnable() error {
	switch in.status {
	case StatusRunning:
		return nil
	case StatusDegraded:
		return ErrDegraded
	case StatusHalted:
		return ErrHalted
	case StatusStopped:
		return ErrStopped
	}
	return fmt.Errorf("unknown status %q", in.status)
}

func (in *Instance) raise(evt primitives.Event) {
	in.queue = append(in.queue, evt)
}

func (in *Instance) process(evt primitives.Event, internal bool) error {
	ts, guardErrs := in.def.resolve(evt, in.cfg, in.data, in.opts.tieBreak)
	for _, ge := range guardErrs {
		in.log.Warn().Err(ge).Str(clog.FieldEvent, evt.Type).Msg("guard failed; treated as false")
	}
	if len(ts) == 0 {
		in.log.Debug().Str(clog.FieldEvent, evt.Type).Bool("internal", internal).Msg("event discarded")
		in.notifyDiscard(Discard{
			InstanceID:   in.id,
			DefinitionID: in.def.id,
			Event:        evt,
			Internal:     internal,
			GuardErrors:  guardErrs,
		})
		return nil
	}
	step := in.microstep(evt, internal, ts, guardErrs)
	return in.commit(&step)
}

// drain processes the internal queue FIFO until it is empty, the instance
// leaves the running state, or the bound is exceeded.
func (in *Instance) drain() error {
	processed := 0
	for len(in.queue) > 0 {
		if in.status != StatusRunning {
			in.queue = nil
			return nil
		}
		if processed >= in.opts.maxInternal {
			err := &ActionLoopError{Limit: in.opts.maxInternal, Event: in.queue[0].Type}
			in.queue = nil
			in.setStatus(StatusHalted)
			in.log.Error().Err(err).Msg("instance halted")
			return err
		}
		evt := in.queue[0]
		in.queue[0] = primitives.Event{}
		in.queue = in.queue[1:]
		processed++
		if err := in.process(evt, true); err != nil {
			return err
		}
	}
	return nil
}

// commit publishes the working state of a finished microstep and notifies
// observers. It returns a non-nil error only for a failed consistency check.
func (in *Instance) commit(step *Microstep) error {
	var fatal error
	status := in.status
	switch {
	case step.Kind == StepStop:
		status = StatusStopped
		if step.Err != nil {
			in.log.Error().Err(step.Err).Msg("exit action failed during stop")
		}
	case step.Err != nil:
		status = StatusDegraded
		step.Degraded = true
		in.queue = nil
		in.log.Error().Err(step.Err).Uint64(clog.FieldStep, step.Seq).Msg("microstep aborted; instance degraded")
	case in.opts.verify:
		if err := in.cfg.Verify(); err != nil {
			status = StatusHalted
			step.Err = err
			fatal = err
			in.queue = nil
			in.log.Error().Err(err).Uint64(clog.FieldStep, step.Seq).Msg("instance halted")
		}
	}
	step.Status = status
	step.Active = in.cfg.IDs()

	snap := in.buildSnapshot(status)
	in.mu.Lock()
	in.status = status
	in.committed = snap
	in.mu.Unlock()

	in.log.Debug().
		Uint64(clog.FieldStep, step.Seq).
		Stringer("kind", step.Kind).
		Str(clog.FieldEvent, step.Event.Type).
		Strs(clog.FieldExited, step.Exited).
		Strs(clog.FieldEntered, step.Entered).
		Msg("microstep")
	in.notify(*step)
	return fatal
}

func (in *Instance) setStatus(status Status) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.status = status
	in.committed.Status = status
}

func (in *Instance) buildSnapshot(status Status) Snapshot {
	return Snapshot{
		InstanceID:   in.id,
		DefinitionID: in.def.id,
		Version:      in.def.version,
		Status:       status,
		Step:         in.seq,
		Active:       in.cfg.IDs(),
		History:      in.history.export(in.def),
		Context:      in.data.Snapshot(),
		Timestamp:    time.Now().UTC(),
	}
}

func (in *Instance) notify(step Microstep) {
	for _, obs := range in.opts.observers {
		in.safeObserve(func() { obs.OnMicrostep(step) })
	}
}

func (in *Instance) notifyDiscard(d Discard) {
	for _, obs := range in.opts.observers {
		if ext, ok := obs.(ExtendedObserver); ok {
			in.safeObserve(func() { ext.OnEventDiscarded(d) })
		}
	}
}

func (in *Instance) safeObserve(call func()) {
	defer func() {
		if r := recover(); r != nil {
			in.log.Error().Interface("panic", r).Msg("observer panicked")
		}
	}()
	call()
}
