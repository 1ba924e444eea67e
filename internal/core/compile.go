package core

import (
	"fmt"
	"sort"

	"github.com/comalice/chartkit/internal/primitives"
)

// Compile validates cfg and builds the immutable Definition. String action
// and guard references are resolved through binder, which may be nil when the
// config only holds function values. All problems are returned together as a
// *DefinitionError.
func Compile(cfg primitives.MachineConfig, binder Binder) (*Definition, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &DefinitionError{Definition: cfg.ID, Problems: flattenErrors(err)}
	}

	c := &compiler{
		def: &Definition{
			id:      cfg.ID,
			version: primitives.ComputeVersion(&cfg),
			byID:    make(map[string]StateIndex),
		},
		binder: binder,
	}
	c.addState(cfg.Root, NoState, 0)
	for i := range c.def.states {
		c.resolveState(StateIndex(i))
	}
	for i := range c.def.states {
		c.compileTransitions(StateIndex(i))
	}
	if len(c.errs) == 0 {
		c.checkReachability()
	}
	if len(c.errs) > 0 {
		return nil, &DefinitionError{Definition: cfg.ID, Problems: c.errs}
	}
	return c.def, nil
}

// MustCompile is Compile for definitions known to be valid.
func MustCompile(cfg primitives.MachineConfig, binder Binder) *Definition {
	def, err := Compile(cfg, binder)
	if err != nil {
		panic(err)
	}
	return def
}

func flattenErrors(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, flattenErrors(e)...)
		}
		return out
	}
	return []error{err}
}

type compiler struct {
	def    *Definition
	cfgs   []*primitives.StateConfig
	binder Binder
	errs   []error
}

func (c *compiler) fail(format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf(format, args...))
}

func kindOf(t primitives.StateType) Kind {
	switch t {
	case primitives.Compound:
		return KindCompound
	case primitives.Orthogonal:
		return KindOrthogonal
	case primitives.Final:
		return KindFinal
	default:
		return KindAtomic
	}
}

func historyOf(h primitives.HistoryType) HistoryMode {
	switch h {
	case primitives.ShallowHistory:
		return HistoryShallow
	case primitives.DeepHistory:
		return HistoryDeep
	default:
		return HistoryNone
	}
}

// addState appends s and its subtree in pre-order.
func (c *compiler) addState(s *primitives.StateConfig, parent StateIndex, depth int) StateIndex {
	idx := StateIndex(len(c.def.states))
	c.def.states = append(c.def.states, stateNode{
		id:      s.ID,
		kind:    kindOf(s.EffectiveType()),
		parent:  parent,
		depth:   depth,
		initial: NoState,
		history: historyOf(s.History),
	})
	c.cfgs = append(c.cfgs, s)
	c.def.byID[s.ID] = idx

	children := make([]StateIndex, 0, len(s.Children))
	for _, child := range s.Children {
		children = append(children, c.addState(child, idx, depth+1))
	}
	n := &c.def.states[idx]
	n.children = children
	n.end = StateIndex(len(c.def.states) - 1)
	return idx
}

func (c *compiler) bindActions(refs []primitives.ActionRef, owner, label string) []boundAction {
	var out []boundAction
	for i, ref := range refs {
		a, err := bindAction(ref, fmt.Sprintf("%s.%s[%d]", owner, label, i), c.binder)
		if err != nil {
			c.errs = append(c.errs, err)
			continue
		}
		out = append(out, a)
	}
	return out
}

func (c *compiler) resolveState(i StateIndex) {
	n := &c.def.states[i]
	cfg := c.cfgs[i]

	switch n.kind {
	case KindCompound:
		if cfg.Initial == "" {
			n.initial = n.children[0]
			break
		}
		init := c.def.byID[cfg.Initial]
		if !c.def.isDescendant(init, i) {
			c.fail("state %q: initial %q is not a descendant (cyclic or foreign default-initial chain)", n.id, cfg.Initial)
			break
		}
		n.initial = init
	case KindAtomic, KindOrthogonal, KindFinal:
	default:
		panic(unhandledKind(n.kind))
	}

	n.entry = c.bindActions(cfg.Entry, n.id, "entry")
	n.exit = c.bindActions(cfg.Exit, n.id, "exit")
	n.initialActions = c.bindActions(cfg.InitialActions, n.id, "initial")
	for j, ref := range cfg.Handlers {
		h, err := bindHandler(ref, fmt.Sprintf("%s.handlers[%d]", n.id, j), c.binder)
		if err != nil {
			c.errs = append(c.errs, err)
			continue
		}
		n.handlers = append(n.handlers, h)
	}
}

func (c *compiler) compileTransitions(src StateIndex) {
	cfg := c.cfgs[src]
	srcID := c.def.states[src].id
	var local []int
	for j := range cfg.Transitions {
		tc := &cfg.Transitions[j]
		index := len(c.def.transitions)
		label := fmt.Sprintf("%s.transitions[%d]", srcID, j)

		pattern, err := primitives.ParsePattern(tc.Event)
		if err != nil {
			c.fail("%s: %w", label, err)
			continue
		}
		var targets []StateIndex
		for _, id := range tc.AllTargets() {
			t := c.def.byID[id]
			if t == 0 {
				c.fail("%s: the root state %q cannot be a transition target", label, id)
			}
			targets = append(targets, t)
		}
		c.checkTargetsCompatible(label, targets)

		guard, err := bindGuard(tc.Guard, label+".guard", c.binder)
		if err != nil {
			c.errs = append(c.errs, err)
		}
		actions := c.bindActions(tc.Actions, label, "actions")

		c.def.transitions = append(c.def.transitions, transitionNode{
			index:    index,
			source:   src,
			targets:  targets,
			pattern:  pattern,
			guard:    guard,
			actions:  actions,
			priority: tc.Priority,
			domain:   c.def.computeDomain(src, targets),
		})
		local = append(local, index)
	}
	sort.SliceStable(local, func(a, b int) bool {
		return c.def.transitions[local[a]].priority > c.def.transitions[local[b]].priority
	})
	c.def.states[src].transitions = local
}

// checkTargetsCompatible rejects multi-target transitions whose targets
// cannot be active together: two targets not on one ancestor line must meet
// at an orthogonal state.
func (c *compiler) checkTargetsCompatible(label string, targets []StateIndex) {
	d := c.def
	for i := 0; i < len(targets); i++ {
		for j := i + 1; j < len(targets); j++ {
			a, b := targets[i], targets[j]
			if d.isDescendantOrSelf(a, b) || d.isDescendantOrSelf(b, a) {
				continue
			}
			if l := d.lca(a, b); d.states[l].kind != KindOrthogonal {
				c.fail("%s: targets %q and %q are exclusive under %s state %q",
					label, d.states[a].id, d.states[b].id, d.states[l].kind, d.states[l].id)
			}
		}
	}
}

// checkReachability closes the set of states entered by the default descent
// from root under every transition whose source is reachable.
func (c *compiler) checkReachability() {
	d := c.def
	reach := make([]bool, len(d.states))
	mark := func(p *entryPlan) bool {
		grew := false
		for i, in := range p.enter {
			if in && !reach[i] {
				reach[i] = true
				grew = true
			}
		}
		return grew
	}

	p := newEntryPlan(d, nil)
	p.addDescendants(0, false)
	mark(p)

	done := make([]bool, len(d.transitions))
	for grew := true; grew; {
		grew = false
		for i := range d.transitions {
			t := &d.transitions[i]
			if done[i] || !reach[t.source] {
				continue
			}
			done[i] = true
			if len(t.targets) == 0 {
				continue
			}
			p := newEntryPlan(d, nil)
			p.addTransition(t)
			if mark(p) {
				grew = true
			}
		}
	}

	var unreachable []string
	for i, ok := range reach {
		if !ok {
			unreachable = append(unreachable, d.states[i].id)
		}
	}
	if len(unreachable) > 0 {
		c.errs = append(c.errs, fmt.Errorf("unreachable states: %v", unreachable))
	}
}
