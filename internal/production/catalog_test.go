package production_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/primitives"
	"github.com/comalice/chartkit/internal/production"
)

func versioned(t *testing.T, id, version string) *core.Definition {
	t.Helper()
	r := primitives.NewStateConfig("root", primitives.Compound)
	r.State("a")
	def, err := core.Compile(primitives.MachineConfig{ID: id, Version: version, Root: r}, nil)
	require.NoError(t, err)
	return def
}

func TestCatalogVersions(t *testing.T) {
	c := production.NewCatalog()
	require.NoError(t, c.Register(versioned(t, "m", "v1"), "one.yaml"))
	require.NoError(t, c.Register(versioned(t, "m", "v2"), "two.yaml"))
	require.NoError(t, c.Register(versioned(t, "other", "v1"), ""))

	latest, err := c.Latest("m")
	require.NoError(t, err)
	assert.Equal(t, "v2", latest.Version())

	old, err := c.Version("m", "v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", old.Version())

	versions, err := c.ListVersions("m")
	require.NoError(t, err)
	assert.Equal(t, []string{"v2", "v1"}, versions)
	assert.Equal(t, []string{"m", "other"}, c.ListDefinitions())

	entries := c.Entries("m")
	require.Len(t, entries, 2)
	assert.Equal(t, "one.yaml", entries[0].Source)
	assert.False(t, entries[0].Added.IsZero())
}

func TestCatalogErrors(t *testing.T) {
	c := production.NewCatalog()
	require.NoError(t, c.Register(versioned(t, "m", "v1"), ""))

	assert.ErrorIs(t, c.Register(versioned(t, "m", "v1"), ""), production.ErrExists)
	assert.Error(t, c.Register(nil, ""))

	_, err := c.Latest("missing")
	assert.ErrorIs(t, err, production.ErrNotFound)
	_, err = c.Version("m", "v9")
	assert.ErrorIs(t, err, production.ErrNotFound)
	_, err = c.ListVersions("missing")
	assert.ErrorIs(t, err, production.ErrNotFound)
}

func TestCatalogResumesOnSnapshotVersion(t *testing.T) {
	c := production.NewCatalog()
	v1 := versioned(t, "m", "v1")
	require.NoError(t, c.Register(v1, ""))

	inst, err := core.Start(v1)
	require.NoError(t, err)
	snap := inst.Snapshot()

	require.NoError(t, c.Register(versioned(t, "m", "v2"), ""))
	def, err := c.ForSnapshot(snap)
	require.NoError(t, err)
	assert.Same(t, v1, def, "running instances keep their version")

	_, err = core.Resume(def, snap)
	require.NoError(t, err)
}
