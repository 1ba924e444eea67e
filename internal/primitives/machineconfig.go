// MachineConfig is the top-level authoring document of a statechart: an ID,
// an optional version, and the root state with its nested children.
// Validation covers the structural rules that need no compilation: tree
// shape, unique IDs, and that every initial and target names a known state.
package primitives

import (
	"errors"
	"fmt"
)

// MachineConfig defines the complete statechart configuration.
type MachineConfig struct {
	Version string       `json:"version,omitempty" yaml:"version,omitempty"`
	ID      string       `json:"id" yaml:"id"`
	Root    *StateConfig `json:"root" yaml:"root"`
}

// Validate validates the entire machine configuration:
//   - Non-empty ID and a root state
//   - Root is compound or orthogonal
//   - All states validate (recursive)
//   - Every Initial and transition target names a state in the tree
func (m *MachineConfig) Validate() error {
	var errs []error
	if m.ID == "" {
		errs = append(errs, errors.New("machine ID is required"))
	}
	if m.Root == nil {
		errs = append(errs, errors.New("root state is required"))
		return errors.Join(errs...)
	}
	if err := m.Root.Validate(); err != nil {
		errs = append(errs, err)
		// References cannot be checked on a malformed tree.
		return errors.Join(errs...)
	}
	switch m.Root.EffectiveType() {
	case Compound, Orthogonal:
	default:
		errs = append(errs, fmt.Errorf("root state %q must be compound or orthogonal, is %s", m.Root.ID, m.Root.EffectiveType()))
	}

	states := m.Root.Flatten()
	for _, s := range states {
		if s.Initial != "" {
			if _, ok := states[s.Initial]; !ok {
				errs = append(errs, fmt.Errorf("state %q: initial %q not found", s.ID, s.Initial))
			}
		}
		for i, trans := range s.Transitions {
			for _, target := range trans.AllTargets() {
				if _, ok := states[target]; !ok {
					errs = append(errs, fmt.Errorf("invalid transition target %q (state %q, event %q, transition %d)", target, s.ID, trans.Event, i))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// FindState resolves a state by ID anywhere in the tree.
func (m *MachineConfig) FindState(id string) (*StateConfig, error) {
	if id == "" {
		return nil, errors.New("state ID cannot be empty")
	}
	if m.Root == nil {
		return nil, errors.New("machine has no root state")
	}
	if s := m.Root.Find(id); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("state %q not found", id)
}
