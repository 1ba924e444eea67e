package production_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/extensibility"
	clog "github.com/comalice/chartkit/internal/log"
	"github.com/comalice/chartkit/internal/primitives"
	"github.com/comalice/chartkit/internal/production"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), sc.Text())
		out = append(out, m)
	}
	return out
}

func TestLogObserver(t *testing.T) {
	clog.Configure(clog.Config{})
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(prev)

	var buf bytes.Buffer
	obs := production.NewLogObserver(zerolog.New(&buf))
	inst, err := core.Start(load(t, "turnstile.yaml"), core.WithObserver(obs), core.WithInstanceID("t-1"))
	require.NoError(t, err)
	require.NoError(t, inst.SendType("coin"))
	require.NoError(t, inst.SendType("kick"))

	lines := logLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "start", lines[0]["kind"])

	step := lines[1]
	assert.Equal(t, "microstep", step["message"])
	assert.Equal(t, "t-1", step["instance"])
	assert.Equal(t, "turnstile", step["definition"])
	assert.Equal(t, "coin", step["event"])
	assert.Equal(t, float64(2), step["step"])
	assert.Equal(t, []any{"locked"}, step["exited"])
	assert.Equal(t, []any{"unlocked"}, step["entered"])
	assert.Equal(t, "running", step["status"])

	assert.Equal(t, "debug", lines[2]["level"])
	assert.Equal(t, "event discarded", lines[2]["message"])
	assert.Equal(t, "kick", lines[2]["event"])
}

func TestLogObserverLevels(t *testing.T) {
	r := primitives.NewStateConfig("root", primitives.Compound)
	r.State("a").
		Transition("boom", "b", primitives.TransitionConfig{Actions: []primitives.ActionRef{"explode"}}).
		Transition("check", "b", primitives.TransitionConfig{Guard: "broken"})
	r.State("b")

	reg := extensibility.NewRegistry()
	require.NoError(t, reg.RegisterAction("explode", func(*core.Scope) error { return assert.AnError }))
	require.NoError(t, reg.RegisterGuard("broken", func(primitives.Event, primitives.ContextView) (bool, error) {
		return false, assert.AnError
	}))
	def, err := core.Compile(primitives.MachineConfig{ID: "levels", Root: r}, reg)
	require.NoError(t, err)

	var buf bytes.Buffer
	inst, err := core.Start(def, core.WithObserver(production.NewLogObserver(zerolog.New(&buf))))
	require.NoError(t, err)
	require.NoError(t, inst.SendType("check"))
	require.NoError(t, inst.SendType("boom"))

	lines := logLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "warn", lines[1]["level"], "a failing guard is worth a warning")
	assert.Equal(t, "check", lines[1]["event"])
	assert.NotEmpty(t, lines[1]["guard_errors"])
	assert.Equal(t, "error", lines[2]["level"])
	assert.Equal(t, "degraded", lines[2]["status"])
	assert.Contains(t, lines[2]["error"], assert.AnError.Error())
}
