// StateConfig represents a state in the statechart: atomic, compound,
// orthogonal or final, with ordered transitions, actions and nested children.
package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// StateType defines the possible types of states in the statechart.
type StateType string

const (
	Atomic     StateType = "atomic"
	Compound   StateType = "compound"
	Orthogonal StateType = "orthogonal"
	Final      StateType = "final"

	// Parallel is accepted as a synonym for Orthogonal.
	Parallel StateType = "parallel"
)

// HistoryType selects what a composite remembers when it exits.
type HistoryType string

const (
	NoHistory      HistoryType = ""
	ShallowHistory HistoryType = "shallow"
	DeepHistory    HistoryType = "deep"
)

// StateConfig defines a state configuration, supporting hierarchical nesting.
type StateConfig struct {
	ID             string             `json:"id" yaml:"id"`
	Type           StateType          `json:"type,omitempty" yaml:"type,omitempty"`
	Initial        string             `json:"initial,omitempty" yaml:"initial,omitempty"` // default entry target, any strict descendant
	History        HistoryType        `json:"history,omitempty" yaml:"history,omitempty"`
	Entry          []ActionRef        `json:"entry,omitempty" yaml:"entry,omitempty"`
	Exit           []ActionRef        `json:"exit,omitempty" yaml:"exit,omitempty"`
	InitialActions []ActionRef        `json:"initialActions,omitempty" yaml:"initialActions,omitempty"`
	Handlers       []HandlerRef       `json:"handlers,omitempty" yaml:"handlers,omitempty"`
	Transitions    []TransitionConfig `json:"transitions,omitempty" yaml:"transitions,omitempty"`
	Children       []*StateConfig     `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewStateConfig creates a new StateConfig with ID and Type.
func NewStateConfig(id string, typ StateType) *StateConfig {
	return &StateConfig{
		ID:   id,
		Type: typ,
	}
}

// EffectiveType resolves the declared type: Parallel becomes Orthogonal and an
// empty type is Compound when the state has children, Atomic otherwise.
func (s *StateConfig) EffectiveType() StateType {
	switch s.Type {
	case "":
		if len(s.Children) > 0 {
			return Compound
		}
		return Atomic
	case Parallel:
		return Orthogonal
	}
	return s.Type
}

// WithInitial sets the default entry target (for compound states).
func (s *StateConfig) WithInitial(initial string) *StateConfig {
	s.Initial = initial
	return s
}

// WithHistory sets the history mode.
func (s *StateConfig) WithHistory(h HistoryType) *StateConfig {
	s.History = h
	return s
}

// AddTransition appends a transition; declaration order is preserved.
func (s *StateConfig) AddTransition(trans TransitionConfig) *StateConfig {
	s.Transitions = append(s.Transitions, trans)
	return s
}

// OnEntry adds entry actions.
func (s *StateConfig) OnEntry(actions ...ActionRef) *StateConfig {
	s.Entry = append(s.Entry, actions...)
	return s
}

// OnExit adds exit actions.
func (s *StateConfig) OnExit(actions ...ActionRef) *StateConfig {
	s.Exit = append(s.Exit, actions...)
	return s
}

// WithInitialActions adds actions run when the state is entered through its
// default initial.
func (s *StateConfig) WithInitialActions(actions ...ActionRef) *StateConfig {
	s.InitialActions = append(s.InitialActions, actions...)
	return s
}

// WithHandlers adds the handlers instantiated on every entry of the state.
func (s *StateConfig) WithHandlers(handlers ...HandlerRef) *StateConfig {
	s.Handlers = append(s.Handlers, handlers...)
	return s
}

// AddChild adds a child state.
func (s *StateConfig) AddChild(child *StateConfig) *StateConfig {
	s.Children = append(s.Children, child)
	return s
}

// State creates and adds a child state (atomic by default, or specified type).
// Returns the child for fluent chaining: parent.State("child").Transition("evt", "target").
func (s *StateConfig) State(id string, typ ...StateType) *StateConfig {
	var t StateType
	if len(typ) > 0 {
		t = typ[0]
	}
	child := NewStateConfig(id, t)
	s.AddChild(child)
	return child
}

// Transition adds a transition from event to target. An empty target makes
// the transition internal. Optionally override with a full TransitionConfig.
// Usage: .Transition("evt", "target") or .Transition("evt", "target", TransitionConfig{Guard: fn}).
func (s *StateConfig) Transition(event, target string, transOpts ...TransitionConfig) *StateConfig {
	var trans TransitionConfig
	if len(transOpts) > 0 {
		trans = transOpts[0]
	}
	trans.Event = event
	if target != "" {
		trans.Target = target
	}
	return s.AddTransition(trans)
}

// Find returns the state with id in this subtree.
func (s *StateConfig) Find(id string) *StateConfig {
	if s.ID == id {
		return s
	}
	for _, child := range s.Children {
		if found := child.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Flatten returns a flat map[string]*StateConfig by recursing the entire hierarchy from this root.
func (s *StateConfig) Flatten() map[string]*StateConfig {
	m := make(map[string]*StateConfig)
	s.flattenHelper(m)
	return m
}

func (s *StateConfig) flattenHelper(m map[string]*StateConfig) {
	if _, ok := m[s.ID]; ok {
		return
	}
	m[s.ID] = s
	for _, child := range s.Children {
		child.flattenHelper(m)
	}
}

// Validate performs recursive structural validation of the StateConfig tree.
// Every problem found is returned, joined.
func (s *StateConfig) Validate() error {
	v := &treeValidator{
		onPath: make(map[*StateConfig]bool),
		ids:    make(map[string]int),
	}
	v.walk(s, "")
	for id, n := range v.ids {
		if n > 1 {
			v.errs = append(v.errs, fmt.Errorf("duplicate state ID %q (%d occurrences)", id, n))
		}
	}
	return errors.Join(v.errs...)
}

type treeValidator struct {
	onPath map[*StateConfig]bool
	ids    map[string]int
	errs   []error
}

func (v *treeValidator) fail(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *treeValidator) walk(s *StateConfig, parent string) {
	if s == nil {
		v.fail("nil child state under %q", parent)
		return
	}
	if v.onPath[s] {
		v.fail("cyclic state hierarchy: %q contains itself", s.ID)
		return
	}
	v.onPath[s] = true
	defer delete(v.onPath, s)

	if strings.TrimSpace(s.ID) == "" {
		v.fail("state ID is required (child of %q)", parent)
	} else {
		if strings.IndexFunc(s.ID, isSpace) >= 0 {
			v.fail("state ID %q contains whitespace", s.ID)
		}
		v.ids[s.ID]++
	}

	typ := s.EffectiveType()
	switch typ {
	case Atomic:
		if s.Initial != "" {
			v.fail("atomic state %s cannot have Initial", s.ID)
		}
		if len(s.Children) > 0 {
			v.fail("atomic state %s cannot have Children", s.ID)
		}
	case Compound:
		if len(s.Children) == 0 {
			v.fail("compound state %s requires Children", s.ID)
		}
	case Orthogonal:
		if len(s.Children) < 2 {
			v.fail("orthogonal state %s requires at least 2 regions, has %d", s.ID, len(s.Children))
		}
		if s.Initial != "" {
			v.fail("orthogonal state %s cannot have Initial (all regions are entered)", s.ID)
		}
		for _, r := range s.Children {
			if r != nil && r.EffectiveType() == Final {
				v.fail("region %s of orthogonal state %s cannot be final", r.ID, s.ID)
			}
		}
	case Final:
		if len(s.Children) > 0 {
			v.fail("final state %s cannot have Children", s.ID)
		}
		if len(s.Transitions) > 0 {
			v.fail("final state %s cannot have transitions", s.ID)
		}
		if len(s.InitialActions) > 0 {
			v.fail("final state %s cannot have initial actions", s.ID)
		}
	default:
		v.fail("invalid state type %q for state %s", s.Type, s.ID)
	}

	switch s.History {
	case NoHistory:
	case ShallowHistory, DeepHistory:
		if typ != Compound && typ != Orthogonal {
			v.fail("%s history on %s state %s: only composite states keep history", s.History, typ, s.ID)
		}
	default:
		v.fail("invalid history type %q for state %s", s.History, s.ID)
	}

	if len(s.InitialActions) > 0 && typ != Compound {
		v.fail("initial actions on %s state %s: only compound states have a default initial", typ, s.ID)
	}

	for i := range s.Transitions {
		if err := s.Transitions[i].Validate(); err != nil {
			v.fail("state %s transition %d: %w", s.ID, i, err)
		}
	}

	for _, child := range s.Children {
		v.walk(child, s.ID)
	}
}
