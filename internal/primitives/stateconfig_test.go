package primitives

import (
	"strings"
	"testing"
)

func TestStateConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		newConfig   func() *StateConfig
		wantErr     bool
		errContains string
	}{
		{
			name: "valid atomic",
			newConfig: func() *StateConfig {
				return NewStateConfig("atomic", Atomic)
			},
		},
		{
			name: "missing ID",
			newConfig: func() *StateConfig {
				return NewStateConfig("", Atomic)
			},
			wantErr:     true,
			errContains: "ID is required",
		},
		{
			name: "invalid type",
			newConfig: func() *StateConfig {
				return NewStateConfig("bad", StateType("invalid"))
			},
			wantErr:     true,
			errContains: "invalid state type",
		},
		{
			name: "atomic with initial",
			newConfig: func() *StateConfig {
				return NewStateConfig("atomic", Atomic).WithInitial("foo")
			},
			wantErr:     true,
			errContains: "cannot have Initial",
		},
		{
			name: "atomic with children",
			newConfig: func() *StateConfig {
				s := NewStateConfig("atomic", Atomic)
				s.State("child")
				return s
			},
			wantErr:     true,
			errContains: "cannot have Children",
		},
		{
			name: "compound without children",
			newConfig: func() *StateConfig {
				return NewStateConfig("c", Compound)
			},
			wantErr:     true,
			errContains: "requires Children",
		},
		{
			name: "compound defaults to first child",
			newConfig: func() *StateConfig {
				s := NewStateConfig("c", Compound)
				s.State("a")
				s.State("b")
				return s
			},
		},
		{
			name: "orthogonal with one region",
			newConfig: func() *StateConfig {
				s := NewStateConfig("p", Parallel)
				s.State("r1")
				return s
			},
			wantErr:     true,
			errContains: "at least 2 regions",
		},
		{
			name: "orthogonal with final region",
			newConfig: func() *StateConfig {
				s := NewStateConfig("p", Orthogonal)
				s.State("r1")
				s.State("r2", Final)
				return s
			},
			wantErr:     true,
			errContains: "cannot be final",
		},
		{
			name: "final with transition",
			newConfig: func() *StateConfig {
				s := NewStateConfig("c", Compound)
				s.State("done", Final).Transition("again", "c")
				return s
			},
			wantErr:     true,
			errContains: "cannot have transitions",
		},
		{
			name: "history on atomic",
			newConfig: func() *StateConfig {
				return NewStateConfig("a", Atomic).WithHistory(ShallowHistory)
			},
			wantErr:     true,
			errContains: "only composite states keep history",
		},
		{
			name: "duplicate ids",
			newConfig: func() *StateConfig {
				s := NewStateConfig("root", Compound)
				s.State("a")
				s.State("a")
				return s
			},
			wantErr:     true,
			errContains: "duplicate state ID",
		},
		{
			name: "cyclic tree",
			newConfig: func() *StateConfig {
				s := NewStateConfig("root", Compound)
				child := s.State("loop", Compound)
				child.AddChild(s)
				return s
			},
			wantErr:     true,
			errContains: "cyclic state hierarchy",
		},
		{
			name: "bad transition",
			newConfig: func() *StateConfig {
				s := NewStateConfig("root", Compound)
				s.State("a").Transition("", "a")
				return s
			},
			wantErr:     true,
			errContains: "event is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.newConfig().Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf(`error "%v" does not contain "%s"`, err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEffectiveType(t *testing.T) {
	leaf := NewStateConfig("leaf", "")
	if leaf.EffectiveType() != Atomic {
		t.Errorf("childless untyped state = %s, want atomic", leaf.EffectiveType())
	}
	parent := NewStateConfig("parent", "")
	parent.State("x")
	if parent.EffectiveType() != Compound {
		t.Errorf("untyped state with children = %s, want compound", parent.EffectiveType())
	}
	if NewStateConfig("p", Parallel).EffectiveType() != Orthogonal {
		t.Error("parallel should normalize to orthogonal")
	}
}

func TestFluentHelpers(t *testing.T) {
	root := NewStateConfig("root", Compound).WithInitial("a")
	a := root.State("a").OnEntry("enterA").OnExit("exitA")
	a.Transition("go", "b")
	a.Transition("tick", "", TransitionConfig{Actions: []ActionRef{"count"}})
	root.State("b")

	if len(root.Children) != 2 {
		t.Fatalf("children = %d", len(root.Children))
	}
	if len(a.Transitions) != 2 || a.Transitions[0].Event != "go" || a.Transitions[1].Event != "tick" {
		t.Errorf("transitions out of declaration order: %+v", a.Transitions)
	}
	if !a.Transitions[1].IsInternal() {
		t.Error("empty target should yield internal transition")
	}
	if root.Find("b") == nil || root.Find("zzz") != nil {
		t.Error("Find misbehaves")
	}
	if got := len(root.Flatten()); got != 3 {
		t.Errorf("Flatten size = %d, want 3", got)
	}
	if err := root.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
