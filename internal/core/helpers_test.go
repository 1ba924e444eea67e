package core_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/primitives"
	"github.com/comalice/chartkit/testutil"
)

func compile(t testing.TB, root *primitives.StateConfig) *core.Definition {
	t.Helper()
	def, err := core.Compile(primitives.MachineConfig{ID: "test", Root: root}, nil)
	require.NoError(t, err)
	return def
}

func start(t testing.TB, def *core.Definition, opts ...core.Option) *core.Instance {
	t.Helper()
	inst, err := core.Start(def, opts...)
	require.NoError(t, err)
	return inst
}

func send(t testing.TB, inst *core.Instance, types ...string) {
	t.Helper()
	for _, typ := range types {
		require.NoError(t, inst.Send(primitives.NewEvent(typ, nil)), "send %q", typ)
	}
}

// traced adds "+id" entry and "-id" exit labels to every state of s.
func traced(tr *testutil.Trace, s *primitives.StateConfig) *primitives.StateConfig {
	s.OnEntry(tr.Action("+" + s.ID))
	s.OnExit(tr.Action("-" + s.ID))
	for _, c := range s.Children {
		traced(tr, c)
	}
	return s
}

func root() *primitives.StateConfig {
	return primitives.NewStateConfig("root", primitives.Compound)
}

func fail(err error) core.Action {
	return func(*core.Scope) error { return err }
}
