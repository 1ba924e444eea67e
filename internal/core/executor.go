package core

import (
	"errors"

	"github.com/comalice/chartkit/internal/primitives"
)

// entryPlan accumulates the entry set of a microstep. enter marks states to
// activate; defaults marks compounds entered through their default initial.
type entryPlan struct {
	def      *Definition
	hist     *HistoryManager // nil: ignore history
	enter    []bool
	defaults []bool
}

func newEntryPlan(def *Definition, hist *HistoryManager) *entryPlan {
	return &entryPlan{
		def:      def,
		hist:     hist,
		enter:    make([]bool, len(def.states)),
		defaults: make([]bool, len(def.states)),
	}
}

func (p *entryPlan) addTransition(t *transitionNode) {
	for _, tg := range t.targets {
		p.addDescendants(tg, true)
	}
	for _, tg := range t.targets {
		p.addAncestors(tg, t.domain)
	}
}

// addDescendants adds s and whatever it needs below it: the recorded history
// when s is a transition target that has one, otherwise its default initial or
// all of its regions.
func (p *entryPlan) addDescendants(s StateIndex, target bool) {
	n := &p.def.states[s]
	if target && n.history != HistoryNone && p.hist != nil {
		if rec, ok := p.hist.Restore(s); ok {
			p.enter[s] = true
			for _, r := range rec {
				p.addDescendants(r, false)
			}
			for _, r := range rec {
				p.addAncestors(r, s)
			}
			return
		}
	}

	p.enter[s] = true
	switch n.kind {
	case KindAtomic, KindFinal:
	case KindCompound:
		p.defaults[s] = true
		p.addDescendants(n.initial, false)
		p.addAncestors(n.initial, s)
	case KindOrthogonal:
		for _, r := range n.children {
			if !p.covers(r) {
				p.addDescendants(r, false)
			}
		}
	default:
		panic(unhandledKind(n.kind))
	}
}

// addAncestors adds the proper ancestors of s below anc (anc excluded), with
// default entry for the regions of orthogonal ancestors not yet covered.
func (p *entryPlan) addAncestors(s, anc StateIndex) {
	for a := p.def.parent(s); a != NoState && a != anc; a = p.def.parent(a) {
		p.enter[a] = true
		if p.def.states[a].kind != KindOrthogonal {
			continue
		}
		for _, r := range p.def.states[a].children {
			if !p.covers(r) {
				p.addDescendants(r, false)
			}
		}
	}
}

// covers reports whether the plan already enters r or a descendant of r.
func (p *entryPlan) covers(r StateIndex) bool {
	for s := r; s <= p.def.states[r].end; s++ {
		if p.enter[s] {
			return true
		}
	}
	return false
}

// order lists the planned states in document order, shallowest first along
// every branch.
func (p *entryPlan) order() []StateIndex {
	var out []StateIndex
	for s, on := range p.enter {
		if on {
			out = append(out, StateIndex(s))
		}
	}
	return out
}

func (in *Instance) newStep(kind StepKind, evt primitives.Event, internal bool) Microstep {
	in.seq++
	return Microstep{
		InstanceID:   in.id,
		DefinitionID: in.def.id,
		Seq:          in.seq,
		Kind:         kind,
		Event:        evt,
		Internal:     internal,
	}
}

// microstep applies ts: record history, exit deepest first, run transition
// actions in selection order, then enter shallowest first. An action error
// stops the step where it happened; states already exited stay exited.
func (in *Instance) microstep(evt primitives.Event, internal bool, ts []*transitionNode, guardErrs []error) Microstep {
	step := in.newStep(StepEvent, evt, internal)
	step.GuardErrors = guardErrs
	for _, t := range ts {
		step.Transitions = append(step.Transitions, in.def.transitionInfo(t))
	}

	exiting := in.def.exitSet(ts, in.cfg)
	in.history.recordExits(in.def, in.cfg, exiting)
	err := in.exitStates(&step, exiting, evt, true)

	if err == nil {
		for _, t := range ts {
			if err = in.runActions(&step, PhaseTransition, "", t.index, t.actions, evt); err != nil {
				break
			}
		}
	}
	if err == nil {
		plan := newEntryPlan(in.def, in.history)
		for _, t := range ts {
			plan.addTransition(t)
		}
		err = in.enterStates(&step, plan, evt)
	}
	step.Err = err
	return step
}

// exitStates deactivates every state of exiting in order. With abort set the
// first failing action skips the remaining exit actions; otherwise all run
// and the failures are joined.
func (in *Instance) exitStates(step *Microstep, exiting []StateIndex, evt primitives.Event, abort bool) error {
	var errs []error
	for _, s := range exiting {
		n := &in.def.states[s]
		if !abort || len(errs) == 0 {
			if err := in.runActions(step, PhaseExit, n.id, -1, n.exit, evt); err != nil {
				errs = append(errs, err)
			}
		}
		errs = append(errs, in.stopHandlers(step, s, evt, !abort || len(errs) == 0)...)
		in.cfg.remove(s)
		step.Exited = append(step.Exited, n.id)
	}
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

func (in *Instance) enterStates(step *Microstep, plan *entryPlan, evt primitives.Event) error {
	var finals []StateIndex
	for _, s := range plan.order() {
		if in.cfg.IsActive(s) {
			continue
		}
		n := &in.def.states[s]
		in.cfg.add(s)
		step.Entered = append(step.Entered, n.id)
		if err := in.startHandlers(step, s, evt); err != nil {
			return err
		}
		if err := in.runActions(step, PhaseEntry, n.id, -1, n.entry, evt); err != nil {
			return err
		}
		if plan.defaults[s] {
			if err := in.runActions(step, PhaseInitial, n.id, -1, n.initialActions, evt); err != nil {
				return err
			}
		}
		if n.kind == KindFinal {
			finals = append(finals, s)
		}
	}
	in.raiseCompletions(finals)
	return nil
}

// raiseCompletions queues done.state.<parent> for each entered final state,
// and done.state.<orthogonal> once every region of an orthogonal grandparent
// is complete.
func (in *Instance) raiseCompletions(finals []StateIndex) {
	if len(finals) == 0 {
		return
	}
	raised := make(map[StateIndex]bool)
	var parents []StateIndex
	for _, f := range finals {
		p := in.def.parent(f)
		if p == NoState || raised[p] {
			continue
		}
		raised[p] = true
		parents = append(parents, p)
		in.raise(primitives.NewEvent(primitives.DoneEvent(in.def.states[p].id), nil))
	}
	for _, p := range parents {
		gp := in.def.parent(p)
		if gp == NoState || raised[gp] || in.def.states[gp].kind != KindOrthogonal {
			continue
		}
		if in.cfg.inFinal(gp) {
			raised[gp] = true
			in.raise(primitives.NewEvent(primitives.DoneEvent(in.def.states[gp].id), nil))
		}
	}
}

func (in *Instance) runActions(step *Microstep, phase Phase, state string, trans int, actions []boundAction, evt primitives.Event) error {
	if len(actions) == 0 {
		return nil
	}
	sc := &Scope{inst: in, event: evt, phase: phase, state: state}
	for _, a := range actions {
		step.Actions = append(step.Actions, ActionRecord{Phase: phase, State: state, Transition: trans, Action: a.name})
		if err := runAction(a.fn, sc); err != nil {
			return &ActionExecutionError{Phase: phase, State: state, Transition: trans, Action: a.name, Err: err}
		}
	}
	return nil
}
