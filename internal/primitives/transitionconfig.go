// TransitionConfig defines transitions between states with guards, actions
// and priority.
//
// Targets are state IDs. IDs are unique across a machine, so no path syntax
// is needed. Guards and Actions are pluggable references (function or string
// ID) bound when the machine is compiled.
// Higher Priority values are tried first within one source state.
package primitives

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ActionRef references an action: a string ID or a function value accepted by
// the compiler.
type ActionRef any

// GuardRef references a guard condition: a string ID or expression, or a
// function value accepted by the compiler.
type GuardRef any

// HandlerRef references a state handler factory: a string ID resolved by the
// binder, or a factory function value.
type HandlerRef any

// TransitionConfig defines a single transition triggered by an Event pattern.
type TransitionConfig struct {
	Event    string      `json:"event" yaml:"event"`
	Guard    GuardRef    `json:"guard,omitempty" yaml:"guard,omitempty"`
	Target   string      `json:"target,omitempty" yaml:"target,omitempty"`
	Targets  []string    `json:"targets,omitempty" yaml:"targets,omitempty"`
	Actions  []ActionRef `json:"actions,omitempty" yaml:"actions,omitempty"`
	Priority int         `json:"priority,omitempty" yaml:"priority,omitempty"` // higher = evaluated first (default 0)
}

// AllTargets merges Target and Targets. An empty result marks an internal
// transition.
func (t *TransitionConfig) AllTargets() []string {
	if t.Target == "" {
		return t.Targets
	}
	out := make([]string, 0, len(t.Targets)+1)
	out = append(out, t.Target)
	return append(out, t.Targets...)
}

// IsInternal reports whether the transition has no targets.
func (t *TransitionConfig) IsInternal() bool {
	return t.Target == "" && len(t.Targets) == 0
}

// Validate checks TransitionConfig fields and target syntax.
func (t *TransitionConfig) Validate() error {
	if t.Event == "" {
		return errors.New("event is required")
	}
	if _, err := ParsePattern(t.Event); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, target := range t.AllTargets() {
		if strings.TrimSpace(target) == "" {
			return errors.New("empty target")
		}
		if strings.IndexFunc(target, isSpace) >= 0 {
			return fmt.Errorf("invalid target %q: contains whitespace", target)
		}
		if seen[target] {
			return fmt.Errorf("duplicate target %q", target)
		}
		seen[target] = true
	}
	if t.Priority < 0 {
		return errors.New("priority must be non-negative")
	}
	return nil
}

// SortTransitions sorts the slice in place by Priority descending (highest
// first), keeping declaration order among equal priorities.
func SortTransitions(transitions []TransitionConfig) {
	sort.SliceStable(transitions, func(i, j int) bool {
		return transitions[i].Priority > transitions[j].Priority
	})
}
