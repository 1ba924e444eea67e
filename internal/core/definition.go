// Package core is the runtime tier of the statechart engine: the compiled
// Definition, the configuration store, transition resolution, the step
// executor and the per-instance event dispatcher.
package core

import (
	"fmt"

	"github.com/comalice/chartkit/internal/primitives"
)

// StateIndex addresses a state in a Definition's arena. States are stored in
// document (pre-order) order, so a parent always precedes its descendants and
// a subtree occupies a contiguous index range.
type StateIndex int

// NoState is the absent index (the parent of the root).
const NoState StateIndex = -1

// Kind is the closed set of state kinds.
type Kind uint8

const (
	KindAtomic Kind = iota
	KindCompound
	KindOrthogonal
	KindFinal
)

func (k Kind) String() string {
	switch k {
	case KindAtomic:
		return "atomic"
	case KindCompound:
		return "compound"
	case KindOrthogonal:
		return "orthogonal"
	case KindFinal:
		return "final"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func unhandledKind(k Kind) string {
	return fmt.Sprintf("core: unhandled state kind %v", k)
}

// HistoryMode selects what a composite records when it exits.
type HistoryMode uint8

const (
	HistoryNone HistoryMode = iota
	HistoryShallow
	HistoryDeep
)

func (h HistoryMode) String() string {
	switch h {
	case HistoryShallow:
		return "shallow"
	case HistoryDeep:
		return "deep"
	}
	return "none"
}

type boundAction struct {
	name string
	fn   Action
}

type boundGuard struct {
	name string
	fn   Guard
}

type stateNode struct {
	id             string
	kind           Kind
	parent         StateIndex
	depth          int
	end            StateIndex // last index of the subtree
	children       []StateIndex
	initial        StateIndex // compound only
	history        HistoryMode
	entry          []boundAction
	exit           []boundAction
	initialActions []boundAction
	handlers       []boundHandler
	transitions    []int // candidate order: priority desc, then declaration
}

type transitionNode struct {
	index    int
	source   StateIndex
	targets  []StateIndex
	pattern  primitives.Pattern
	guard    *boundGuard
	actions  []boundAction
	priority int
	domain   StateIndex // NoState for internal transitions
}

// Definition is the compiled, validated and immutable statechart. It is safe
// to share between any number of instances and goroutines.
type Definition struct {
	id          string
	version     string
	states      []stateNode
	transitions []transitionNode
	byID        map[string]StateIndex
}

// StateInfo describes one state of a Definition.
type StateInfo struct {
	Index    StateIndex
	ID       string
	Kind     Kind
	Parent   string
	Children []string
	Initial  string
	History  HistoryMode
	Depth    int
}

// TransitionInfo describes one transition of a Definition.
type TransitionInfo struct {
	Index    int      `json:"index" yaml:"index"`
	Source   string   `json:"source" yaml:"source"`
	Targets  []string `json:"targets,omitempty" yaml:"targets,omitempty"`
	Event    string   `json:"event" yaml:"event"`
	Guard    string   `json:"guard,omitempty" yaml:"guard,omitempty"`
	Priority int      `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// ID returns the machine ID.
func (d *Definition) ID() string { return d.id }

// Version returns the explicit or content-hash version.
func (d *Definition) Version() string { return d.version }

// Root returns the root state ID.
func (d *Definition) Root() string { return d.states[0].id }

// Len returns the number of states.
func (d *Definition) Len() int { return len(d.states) }

// Lookup returns the arena index of a state ID.
func (d *Definition) Lookup(id string) (StateIndex, bool) {
	i, ok := d.byID[id]
	return i, ok
}

// State describes the state with the given ID.
func (d *Definition) State(id string) (StateInfo, bool) {
	i, ok := d.byID[id]
	if !ok {
		return StateInfo{}, false
	}
	return d.stateInfo(i), true
}

// States lists every state in document order.
func (d *Definition) States() []StateInfo {
	out := make([]StateInfo, len(d.states))
	for i := range d.states {
		out[i] = d.stateInfo(StateIndex(i))
	}
	return out
}

// Transitions lists every transition in declaration order.
func (d *Definition) Transitions() []TransitionInfo {
	out := make([]TransitionInfo, len(d.transitions))
	for i := range d.transitions {
		out[i] = d.transitionInfo(&d.transitions[i])
	}
	return out
}

func (d *Definition) stateInfo(i StateIndex) StateInfo {
	n := &d.states[i]
	info := StateInfo{
		Index:   i,
		ID:      n.id,
		Kind:    n.kind,
		History: n.history,
		Depth:   n.depth,
	}
	if n.parent != NoState {
		info.Parent = d.states[n.parent].id
	}
	if n.initial != NoState {
		info.Initial = d.states[n.initial].id
	}
	for _, c := range n.children {
		info.Children = append(info.Children, d.states[c].id)
	}
	return info
}

func (d *Definition) transitionInfo(t *transitionNode) TransitionInfo {
	info := TransitionInfo{
		Index:    t.index,
		Source:   d.states[t.source].id,
		Event:    t.pattern.String(),
		Priority: t.priority,
	}
	if t.guard != nil {
		info.Guard = t.guard.name
	}
	for _, tg := range t.targets {
		info.Targets = append(info.Targets, d.states[tg].id)
	}
	return info
}

func (d *Definition) ids(states []StateIndex) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = d.states[s].id
	}
	return out
}

// isDescendant reports whether s is a strict descendant of anc.
func (d *Definition) isDescendant(s, anc StateIndex) bool {
	return s > anc && s <= d.states[anc].end
}

func (d *Definition) isDescendantOrSelf(s, anc StateIndex) bool {
	return s == anc || d.isDescendant(s, anc)
}

func (d *Definition) parent(s StateIndex) StateIndex {
	return d.states[s].parent
}

// lca returns the least common ancestor-or-self of a and b.
func (d *Definition) lca(a, b StateIndex) StateIndex {
	for a != NoState && !d.isDescendantOrSelf(b, a) {
		a = d.parent(a)
	}
	return a
}

// computeDomain returns the nearest proper ancestor of source that is
// compound and strictly contains every target, or the root when none does.
func (d *Definition) computeDomain(source StateIndex, targets []StateIndex) StateIndex {
	if len(targets) == 0 {
		return NoState
	}
	for a := d.parent(source); a != NoState; a = d.parent(a) {
		if d.states[a].kind != KindCompound {
			continue
		}
		all := true
		for _, t := range targets {
			if !d.isDescendant(t, a) {
				all = false
				break
			}
		}
		if all {
			return a
		}
	}
	return 0
}
