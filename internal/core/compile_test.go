package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/primitives"
)

type mapBinder struct {
	actions map[string]core.Action
	guards  map[string]core.Guard
}

func (b mapBinder) Action(name string) (core.Action, error) {
	if a, ok := b.actions[name]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("unknown action %q", name)
}

func (b mapBinder) Guard(expr string) (core.Guard, error) {
	if g, ok := b.guards[expr]; ok {
		return g, nil
	}
	return nil, fmt.Errorf("unknown guard %q", expr)
}

func compileErr(t *testing.T, root *primitives.StateConfig, binder core.Binder) *core.DefinitionError {
	t.Helper()
	_, err := core.Compile(primitives.MachineConfig{ID: "bad", Root: root}, binder)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDefinition)
	var de *core.DefinitionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "bad", de.Definition)
	return de
}

func TestCompileIndexesStates(t *testing.T) {
	r := root()
	p := r.State("P", primitives.Orthogonal)
	p.State("R1").State("x")
	p.State("R2").State("y")
	r.State("Q").Transition("go", "P")
	p.Transition("back", "Q", primitives.TransitionConfig{Priority: 2})
	def := compile(t, r)

	assert.Equal(t, "test", def.ID())
	assert.Equal(t, "root", def.Root())
	assert.Equal(t, 7, def.Len())
	assert.NotEmpty(t, def.Version())

	info, ok := def.State("P")
	require.True(t, ok)
	assert.Equal(t, core.KindOrthogonal, info.Kind)
	assert.Equal(t, "root", info.Parent)
	assert.Equal(t, []string{"R1", "R2"}, info.Children)
	assert.Equal(t, 1, info.Depth)

	r1, _ := def.State("R1")
	assert.Equal(t, core.KindCompound, r1.Kind)
	assert.Equal(t, "x", r1.Initial)

	idx, ok := def.Lookup("Q")
	require.True(t, ok)
	assert.Equal(t, core.StateIndex(6), idx)
	_, ok = def.Lookup("nope")
	assert.False(t, ok)

	ts := def.Transitions()
	require.Len(t, ts, 2)
	assert.Equal(t, "P", ts[0].Source)
	assert.Equal(t, 2, ts[0].Priority)
	assert.Equal(t, "Q", ts[1].Source)
}

func TestCompileVersionIsStable(t *testing.T) {
	build := func() *primitives.StateConfig {
		r := root()
		r.State("A").Transition("go", "B")
		r.State("B")
		return r
	}
	assert.Equal(t, compile(t, build()).Version(), compile(t, build()).Version())

	other := build()
	other.Find("B").Transition("go", "A")
	assert.NotEqual(t, compile(t, build()).Version(), compile(t, other).Version())
}

func TestCompileRejectsStructuralErrors(t *testing.T) {
	r := root()
	r.State("A").Transition("go", "missing")
	r.State("A")
	de := compileErr(t, r, nil)
	assert.Contains(t, de.Error(), "duplicate state ID")
}

func TestCompileRejectsUnreachableStates(t *testing.T) {
	r := root()
	r.State("A").Transition("go", "B")
	r.State("B")
	r.State("C").State("c1")
	de := compileErr(t, r, nil)
	require.Len(t, de.Problems, 1)
	assert.EqualError(t, de.Problems[0], "unreachable states: [C c1]")
}

func TestCompileRejectsExclusiveTargets(t *testing.T) {
	r := root()
	r.State("A").AddTransition(primitives.TransitionConfig{Event: "go", Targets: []string{"B", "C"}})
	r.State("B")
	r.State("C")
	de := compileErr(t, r, nil)
	assert.Contains(t, de.Error(), `targets "B" and "C" are exclusive`)
}

func TestCompileRejectsRootTarget(t *testing.T) {
	r := root()
	r.State("A").Transition("reset", "root")
	de := compileErr(t, r, nil)
	assert.Contains(t, de.Error(), "cannot be a transition target")
}

func TestCompileRejectsForeignInitial(t *testing.T) {
	r := root()
	a := r.State("A").WithInitial("b1")
	a.State("a1")
	r.State("B").State("b1")
	de := compileErr(t, r, nil)
	assert.Contains(t, de.Error(), `initial "b1" is not a descendant`)
}

func TestCompileBindsStringReferences(t *testing.T) {
	var entered bool
	binder := mapBinder{
		actions: map[string]core.Action{"mark": func(*core.Scope) error { entered = true; return nil }},
		guards:  map[string]core.Guard{"always": func(primitives.Event, primitives.ContextView) (bool, error) { return true, nil }},
	}
	r := root()
	r.State("A").Transition("go", "B", primitives.TransitionConfig{Guard: "always"})
	r.State("B").OnEntry("mark")
	def, err := core.Compile(primitives.MachineConfig{ID: "bound", Root: r}, binder)
	require.NoError(t, err)

	ts := def.Transitions()
	require.Len(t, ts, 1)
	assert.Equal(t, "always", ts[0].Guard)

	inst := start(t, def)
	send(t, inst, "go")
	assert.True(t, entered)
}

func TestCompileCollectsBindingErrors(t *testing.T) {
	r := root()
	r.State("A").OnEntry("nope", "nada").Transition("go", "B", primitives.TransitionConfig{Guard: "never"})
	r.State("B").OnExit(42)
	de := compileErr(t, r, mapBinder{})
	assert.Len(t, de.Problems, 4)
	msgs := de.Error()
	assert.Contains(t, msgs, `unknown action "nope"`)
	assert.Contains(t, msgs, `unknown guard "never"`)
	assert.Contains(t, msgs, "unsupported action type int")

	de = compileErr(t, r, nil)
	assert.Contains(t, de.Error(), "needs a binder")
}

func TestCompileRejectsBadPatterns(t *testing.T) {
	r := root()
	r.State("A").Transition("a.*.b", "B")
	r.State("B")
	compileErr(t, r, nil)
}

func TestMustCompilePanics(t *testing.T) {
	assert.Panics(t, func() {
		core.MustCompile(primitives.MachineConfig{}, nil)
	})
}

func TestDefinitionErrorUnwrapsProblems(t *testing.T) {
	sentinel := errors.New("binder down")
	r := root()
	r.State("A").OnEntry("x")
	_, err := core.Compile(primitives.MachineConfig{ID: "m", Root: r}, failingBinder{sentinel})
	assert.ErrorIs(t, err, sentinel)
	assert.True(t, core.IsDefinitionError(err))
}

type failingBinder struct{ err error }

func (b failingBinder) Action(string) (core.Action, error) { return nil, b.err }
func (b failingBinder) Guard(string) (core.Guard, error)   { return nil, b.err }
