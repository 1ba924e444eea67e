package production_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/production"
)

func stores(t *testing.T) map[string]production.Store {
	t.Helper()
	js, err := production.NewJSONStore(filepath.Join(t.TempDir(), "json"))
	require.NoError(t, err)
	ys, err := production.NewYAMLStore(filepath.Join(t.TempDir(), "yaml"))
	require.NoError(t, err)
	return map[string]production.Store{"json": js, "yaml": ys}
}

func TestStoreRoundTripResumes(t *testing.T) {
	ctx := context.Background()
	def := load(t, "player.yaml")

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			inst, err := core.Start(def, core.WithInstanceID("p-1"))
			require.NoError(t, err)
			for _, e := range []string{"play", "pause", "stop"} {
				require.NoError(t, inst.SendType(e))
			}
			want := inst.Snapshot()
			require.NoError(t, store.Save(ctx, want))

			got, err := store.Load(ctx, "p-1")
			require.NoError(t, err)
			assert.Equal(t, want.Active, got.Active)
			assert.Equal(t, want.History, got.History)
			assert.Equal(t, want.Step, got.Step)
			assert.Equal(t, want.Version, got.Version)
			assert.Equal(t, core.StatusRunning, got.Status)
			assert.True(t, want.Timestamp.Equal(got.Timestamp))

			resumed, err := core.Resume(def, got)
			require.NoError(t, err)
			require.NoError(t, resumed.SendType("play"))
			assert.Equal(t, []string{"root", "active", "paused"}, resumed.Snapshot().Active, "deep history survives the store")
		})
	}
}

func TestStoreContextNumbers(t *testing.T) {
	ctx := context.Background()
	def := load(t, "turnstile.yaml")

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			inst, err := core.Start(def)
			require.NoError(t, err)
			require.NoError(t, inst.SendType("coin"))
			require.NoError(t, store.Save(ctx, inst.Snapshot()))

			got, err := store.Load(ctx, inst.ID())
			require.NoError(t, err)
			switch name {
			case "json":
				assert.Equal(t, float64(1), got.Context["coins"], "JSON numbers decode as float64")
			case "yaml":
				assert.Equal(t, 1, got.Context["coins"])
			}

			// The guard compares numerically either way.
			resumed, err := core.Resume(def, got)
			require.NoError(t, err)
			require.NoError(t, resumed.SendType("push"))
			assert.True(t, resumed.Snapshot().IsActive("locked"))
		})
	}
}

func TestStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := production.NewJSONStore(dir)
	require.NoError(t, err)

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, store.Save(ctx, core.Snapshot{InstanceID: id, Status: core.StatusRunning}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".a.json12345"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	require.NoError(t, store.Delete(ctx, "b"))
	assert.ErrorIs(t, store.Delete(ctx, "b"), production.ErrSnapshotNotFound)
	_, err = store.Load(ctx, "b")
	assert.ErrorIs(t, err, production.ErrSnapshotNotFound)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestStoreOverwrites(t *testing.T) {
	ctx := context.Background()
	store, err := production.NewYAMLStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, core.Snapshot{InstanceID: "x", Step: 1}))
	require.NoError(t, store.Save(ctx, core.Snapshot{InstanceID: "x", Step: 2}))
	got, err := store.Load(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Step)
}

func TestStoreRejectsBadIDs(t *testing.T) {
	ctx := context.Background()
	store, err := production.NewJSONStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.Error(t, store.Save(ctx, core.Snapshot{InstanceID: id}), "id %q", id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, "id %q", id)
	}
}

func TestStoreHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store, err := production.NewJSONStore(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, store.Save(ctx, core.Snapshot{InstanceID: "x"}), context.Canceled)
	_, err = store.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
