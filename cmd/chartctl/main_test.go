package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/production"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const light = "testdata/light.yaml"

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", light)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   testdata/light.yaml  light@")
	assert.Contains(t, out, "(4 states, 3 transitions)")

	out, err = execute(t, "validate", light, "testdata/broken.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 documents invalid")
	assert.Contains(t, out, "FAIL testdata/broken.yaml")
	assert.Contains(t, out, "nowhere")
	assert.Contains(t, out, "ghost")
	assert.Equal(t, 2, strings.Count(out, "  - "), "each problem listed separately")
}

func TestDot(t *testing.T) {
	out, err := execute(t, "dot", light, "-e", "timer")
	require.NoError(t, err)
	assert.Contains(t, out, `digraph "light"`)
	assert.Contains(t, out, `"green" [label="green", style="rounded,filled"`)
	assert.Contains(t, out, `"red" [label="red"];`)
}

func TestRunText(t *testing.T) {
	out, err := execute(t, "run", light, "-e", "timer,timer,timer,timer")
	require.NoError(t, err)
	assert.Contains(t, out, "status=running step=5 active=[root green]")
	assert.Contains(t, out, "context=map[cycles:2]")
}

func TestRunInstancesToStore(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "run", light, "-n", "4", "-e", "timer", "-o", "json", "--store", dir)
	require.NoError(t, err)

	var snaps []core.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snaps))
	require.Len(t, snaps, 4)
	ids := map[string]bool{}
	for _, s := range snaps {
		assert.Equal(t, []string{"root", "green"}, s.Active)
		ids[s.InstanceID] = true
	}
	assert.Len(t, ids, 4, "instances get distinct IDs")

	store, err := production.NewJSONStore(dir)
	require.NoError(t, err)
	stored, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestRunMetrics(t *testing.T) {
	out, err := execute(t, "run", light, "-e", "timer,bogus", "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, `chartkit_transitions_total{definition="light"} 1`)
	assert.Contains(t, out, `chartkit_events_discarded_total{definition="light"} 1`)
}

func TestRunRejectsBadInput(t *testing.T) {
	_, err := execute(t, "run", light, "-e", "two words")
	assert.ErrorIs(t, err, core.ErrInvalidEvent)

	_, err = execute(t, "run", light, "-n", "0")
	assert.Error(t, err)

	_, err = execute(t, "run", light, "-o", "xml")
	assert.Error(t, err)

	_, err = execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReportReload(t *testing.T) {
	var buf bytes.Buffer
	report := reportReload(&buf)
	report("a.yaml", nil, assert.AnError)
	report("a.yaml", nil, production.ErrExists)
	assert.Equal(t, "error  a.yaml  "+assert.AnError.Error()+"\n", buf.String())
}
