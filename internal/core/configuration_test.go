package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/chartkit/internal/primitives"
)

func parallelDefinition(t *testing.T) *Definition {
	t.Helper()
	r := primitives.NewStateConfig("root", primitives.Compound)
	p := r.State("P", primitives.Orthogonal)
	r1 := p.State("R1")
	r1.State("a").Transition("fin", "af")
	r1.State("af", primitives.Final)
	r2 := p.State("R2")
	r2.State("b").Transition("fin", "bf")
	r2.State("bf", primitives.Final)
	def, err := Compile(primitives.MachineConfig{ID: "p", Root: r}, nil)
	require.NoError(t, err)
	return def
}

func activate(def *Definition, ids ...string) *Configuration {
	cfg := newConfiguration(def)
	for _, id := range ids {
		cfg.add(def.byID[id])
	}
	return cfg
}

func TestConfigurationVerify(t *testing.T) {
	def := parallelDefinition(t)

	assert.NoError(t, newConfiguration(def).Verify(), "empty configuration")
	assert.NoError(t, activate(def, "root", "P", "R1", "a", "R2", "b").Verify())

	cases := map[string][]string{
		"missing region": {"root", "P", "R1", "a"},
		"orphan":         {"root", "a"},
		"two children":   {"root", "P", "R1", "a", "af", "R2", "b"},
		"root inactive":  {"P", "R1", "a", "R2", "b"},
		"compound empty": {"root", "P", "R1", "R2", "b"},
	}
	for name, ids := range cases {
		t.Run(name, func(t *testing.T) {
			err := activate(def, ids...).Verify()
			assert.ErrorIs(t, err, ErrInconsistent)
		})
	}
}

func TestConfigurationQueries(t *testing.T) {
	def := parallelDefinition(t)
	cfg := activate(def, "root", "P", "R1", "a", "R2", "bf")

	assert.Equal(t, 6, cfg.Len())
	assert.Equal(t, []string{"root", "P", "R1", "a", "R2", "bf"}, cfg.IDs())
	assert.Equal(t, []string{"a", "bf"}, def.ids(cfg.Leaves()))

	assert.True(t, cfg.inFinal(def.byID["R2"]))
	assert.False(t, cfg.inFinal(def.byID["P"]))
	cfg.remove(def.byID["a"])
	cfg.add(def.byID["af"])
	assert.True(t, cfg.inFinal(def.byID["P"]))

	cfg.clear()
	assert.Zero(t, cfg.Len())
	assert.Empty(t, cfg.States())
}

func TestDomainAndExitSet(t *testing.T) {
	def := parallelDefinition(t)
	for _, tr := range def.transitions {
		assert.Equal(t, def.states[tr.source].parent, tr.domain, "region-local transition domain is the region")
	}

	cfg := activate(def, "root", "P", "R1", "a", "R2", "b")
	ts, errs := def.resolve(primitives.NewEvent("fin", nil), cfg, primitives.NewContext(), FirstDeclared)
	require.Empty(t, errs)
	require.Len(t, ts, 2)
	assert.Equal(t, []string{"b", "a"}, def.ids(def.exitSet(ts, cfg)))
}
