package core

import "github.com/comalice/chartkit/internal/primitives"

// TieBreak settles conflicts between transitions whose sources are not on one
// ancestor line.
type TieBreak uint8

const (
	// FirstDeclared keeps the transition selected first (document order).
	FirstDeclared TieBreak = iota
	// HighestPriority keeps the transition with the higher Priority, then the
	// first selected.
	HighestPriority
)

// resolve selects the maximal set of non-conflicting enabled transitions for
// evt. Guard failures are returned alongside and count as false. Wildcard
// transitions are considered only when nothing more specific is enabled.
func (d *Definition) resolve(evt primitives.Event, cfg *Configuration, view primitives.ContextView, tb TieBreak) ([]*transitionNode, []error) {
	var guardErrs []error
	enabled := d.selectEnabled(evt, cfg, view, false, &guardErrs)
	if len(enabled) == 0 {
		enabled = d.selectEnabled(evt, cfg, view, true, &guardErrs)
	}
	if len(enabled) == 0 {
		return nil, guardErrs
	}
	return d.removeConflicts(enabled, cfg, tb), guardErrs
}

// selectEnabled walks from each active leaf towards the root and keeps the
// first enabled transition of the nearest state that has one.
func (d *Definition) selectEnabled(evt primitives.Event, cfg *Configuration, view primitives.ContextView, wildcard bool, guardErrs *[]error) []*transitionNode {
	var enabled []*transitionNode
	evaluated := make(map[int]bool)
	for _, leaf := range cfg.Leaves() {
	chain:
		for s := leaf; s != NoState; s = d.parent(s) {
			for _, ti := range d.states[s].transitions {
				t := &d.transitions[ti]
				if t.pattern.IsWildcard() != wildcard || !t.pattern.Match(evt.Type) {
					continue
				}
				if evaluated[ti] {
					// Already picked (or rejected) through another leaf of
					// the same orthogonal ancestor.
					if containsTransition(enabled, t) {
						break chain
					}
					continue
				}
				evaluated[ti] = true
				if d.guardPasses(t, evt, view, guardErrs) {
					enabled = append(enabled, t)
					break chain
				}
			}
		}
	}
	return enabled
}

func (d *Definition) guardPasses(t *transitionNode, evt primitives.Event, view primitives.ContextView, guardErrs *[]error) bool {
	if t.guard == nil {
		return true
	}
	ok, err := evalGuard(t.guard.fn, evt, view)
	if err != nil {
		*guardErrs = append(*guardErrs, &GuardEvaluationError{
			Source:     d.states[t.source].id,
			Transition: t.index,
			Event:      evt.Type,
			Guard:      t.guard.name,
			Err:        err,
		})
		return false
	}
	return ok
}

func containsTransition(ts []*transitionNode, t *transitionNode) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

// removeConflicts drops transitions whose exit sets intersect one already
// kept. Depth decides first: a descendant source beats its ancestor either way
// round. Only unrelated sources fall through to tb.
func (d *Definition) removeConflicts(enabled []*transitionNode, cfg *Configuration, tb TieBreak) []*transitionNode {
	filtered := make([]*transitionNode, 0, len(enabled))
	exits := make(map[*transitionNode][]bool, len(enabled))
	exitOf := func(t *transitionNode) []bool {
		if m, ok := exits[t]; ok {
			return m
		}
		m := d.exitMask(t, cfg)
		exits[t] = m
		return m
	}

	for _, t1 := range enabled {
		preempted := false
		var drop []*transitionNode
		for _, t2 := range filtered {
			if !intersects(exitOf(t1), exitOf(t2)) {
				continue
			}
			switch {
			case d.isDescendant(t1.source, t2.source):
				drop = append(drop, t2)
			case d.isDescendant(t2.source, t1.source):
				preempted = true
			case tb == HighestPriority && t1.priority > t2.priority:
				drop = append(drop, t2)
			default:
				preempted = true
			}
			if preempted {
				break
			}
		}
		if preempted {
			continue
		}
		if len(drop) > 0 {
			kept := filtered[:0]
			for _, t2 := range filtered {
				if !containsTransition(drop, t2) {
					kept = append(kept, t2)
				}
			}
			filtered = kept
		}
		filtered = append(filtered, t1)
	}
	return filtered
}

// exitMask marks the active strict descendants of t's domain. Internal
// transitions exit nothing and yield nil.
func (d *Definition) exitMask(t *transitionNode, cfg *Configuration) []bool {
	if t.domain == NoState {
		return nil
	}
	m := make([]bool, len(d.states))
	for s := t.domain + 1; s <= d.states[t.domain].end; s++ {
		if cfg.IsActive(s) {
			m[s] = true
		}
	}
	return m
}

func intersects(a, b []bool) bool {
	if a == nil || b == nil {
		return false
	}
	for i := range a {
		if a[i] && b[i] {
			return true
		}
	}
	return false
}

// exitSet returns the union of the exit sets of ts in reverse document order
// (every descendant before its ancestors).
func (d *Definition) exitSet(ts []*transitionNode, cfg *Configuration) []StateIndex {
	mark := make([]bool, len(d.states))
	found := false
	for _, t := range ts {
		if t.domain == NoState {
			continue
		}
		for s := t.domain + 1; s <= d.states[t.domain].end; s++ {
			if cfg.IsActive(s) {
				mark[s] = true
				found = true
			}
		}
	}
	if !found {
		return nil
	}
	var out []StateIndex
	for s := len(mark) - 1; s >= 0; s-- {
		if mark[s] {
			out = append(out, StateIndex(s))
		}
	}
	return out
}
