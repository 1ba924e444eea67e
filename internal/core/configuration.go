package core

import (
	"errors"
	"fmt"
)

// Configuration is the set of active states of one instance. It is owned by
// the instance goroutine; observers receive copies.
type Configuration struct {
	def    *Definition
	active []bool
	count  int
}

func newConfiguration(def *Definition) *Configuration {
	return &Configuration{def: def, active: make([]bool, len(def.states))}
}

// IsActive reports whether state s is active.
func (c *Configuration) IsActive(s StateIndex) bool {
	return c.active[s]
}

// Len returns the number of active states.
func (c *Configuration) Len() int { return c.count }

func (c *Configuration) add(s StateIndex) {
	if !c.active[s] {
		c.active[s] = true
		c.count++
	}
}

func (c *Configuration) remove(s StateIndex) {
	if c.active[s] {
		c.active[s] = false
		c.count--
	}
}

func (c *Configuration) clear() {
	for i := range c.active {
		c.active[i] = false
	}
	c.count = 0
}

// States returns the active states in document order.
func (c *Configuration) States() []StateIndex {
	out := make([]StateIndex, 0, c.count)
	for i, on := range c.active {
		if on {
			out = append(out, StateIndex(i))
		}
	}
	return out
}

// IDs returns the active state IDs in document order.
func (c *Configuration) IDs() []string {
	return c.def.ids(c.States())
}

// Leaves returns the active atomic and final states in document order.
func (c *Configuration) Leaves() []StateIndex {
	var out []StateIndex
	for i, on := range c.active {
		if !on {
			continue
		}
		switch k := c.def.states[i].kind; k {
		case KindAtomic, KindFinal:
			out = append(out, StateIndex(i))
		case KindCompound, KindOrthogonal:
		default:
			panic(unhandledKind(k))
		}
	}
	return out
}

// Verify checks the consistency invariant: a state is active only with its
// parent, an active compound has exactly one active child, and an active
// orthogonal state has all of its regions active.
func (c *Configuration) Verify() error {
	if c.count == 0 {
		return nil
	}
	var errs []error
	if !c.active[0] {
		errs = append(errs, fmt.Errorf("root %q inactive while %d states are active", c.def.states[0].id, c.count))
	}
	for i, on := range c.active {
		if !on {
			continue
		}
		n := &c.def.states[i]
		if n.parent != NoState && !c.active[n.parent] {
			errs = append(errs, fmt.Errorf("%q active without parent %q", n.id, c.def.states[n.parent].id))
		}
		activeChildren := 0
		for _, ch := range n.children {
			if c.active[ch] {
				activeChildren++
			}
		}
		switch n.kind {
		case KindAtomic, KindFinal:
		case KindCompound:
			if activeChildren != 1 {
				errs = append(errs, fmt.Errorf("compound %q has %d active children, want 1", n.id, activeChildren))
			}
		case KindOrthogonal:
			if activeChildren != len(n.children) {
				errs = append(errs, fmt.Errorf("orthogonal %q has %d of %d regions active", n.id, activeChildren, len(n.children)))
			}
		default:
			panic(unhandledKind(n.kind))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInconsistent, errors.Join(errs...))
	}
	return nil
}

// inFinal reports whether s has reached a final configuration: a final state,
// a compound whose active child is final, or an orthogonal whose regions are
// all in final configurations.
func (c *Configuration) inFinal(s StateIndex) bool {
	n := &c.def.states[s]
	switch n.kind {
	case KindFinal:
		return c.active[s]
	case KindAtomic:
		return false
	case KindCompound:
		for _, ch := range n.children {
			if c.active[ch] && c.def.states[ch].kind == KindFinal {
				return true
			}
		}
		return false
	case KindOrthogonal:
		for _, r := range n.children {
			if !c.inFinal(r) {
				return false
			}
		}
		return true
	default:
		panic(unhandledKind(n.kind))
	}
}
