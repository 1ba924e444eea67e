package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/primitives"
)

func createTestDefinition(t *testing.T) *core.Definition {
	t.Helper()
	cfg, err := primitives.NewMachineBuilder("adapter", "root").
		Root().
		Atomic("A").Transition("go", "B").Up().
		Atomic("B").Up().
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	def, err := core.Compile(cfg, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return def
}

// TestAdapterInterface verifies that both adapters implement the interface correctly
func TestAdapterInterface(t *testing.T) {
	tests := []struct {
		name    string
		adapter RuntimeAdapter
	}{
		{name: "Direct", adapter: NewDirectAdapter(createTestDefinition(t))},
		{name: "Actor", adapter: NewActorAdapter(createTestDefinition(t))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RunCommonTests(t, tt.adapter)
		})
	}
}

// RunCommonTests runs the same scenario on any adapter.
func RunCommonTests(t *testing.T, adapter RuntimeAdapter) {
	t.Helper()
	if err := adapter.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer adapter.Stop()

	if !adapter.IsInState("A") {
		t.Errorf("expected A active, got %v", adapter.Active())
	}

	if err := adapter.SendEvent(primitives.NewEvent("go", nil)); err != nil {
		t.Fatalf("SendEvent failed: %v", err)
	}
	if err := adapter.WaitForStability(time.Second); err != nil {
		t.Fatalf("WaitForStability failed: %v", err)
	}

	if !adapter.IsInState("B") || adapter.IsInState("A") {
		t.Errorf("expected B active after transition, got %v", adapter.Active())
	}
}

func TestRecorderAndTrace(t *testing.T) {
	var tr Trace
	root := primitives.NewStateConfig("root", primitives.Compound)
	root.State("A").OnEntry(tr.Action("enter A")).Transition("go", "B")
	root.State("B").OnEntry(tr.Action("enter B"))
	cfg := primitives.MachineConfig{ID: "rec", Root: root}
	def, err := core.Compile(cfg, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	rec := &Recorder{}
	inst, err := core.Start(def, core.WithObserver(rec))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := inst.Send(primitives.NewEvent("nothing", nil)); err != nil {
		t.Fatal(err)
	}
	if err := inst.Send(primitives.NewEvent("go", nil)); err != nil {
		t.Fatal(err)
	}

	if got := tr.Entries(); len(got) != 2 || got[0] != "enter A" || got[1] != "enter B" {
		t.Errorf("trace = %v", got)
	}
	if got := len(rec.Steps()); got != 2 {
		t.Errorf("steps = %d, want 2", got)
	}
	if d := rec.Discarded(); len(d) != 1 || d[0].Event.Type != "nothing" {
		t.Errorf("discarded = %v", d)
	}
	if rec.Last().Event.Type != "go" {
		t.Errorf("last = %q", rec.Last().Event.Type)
	}
	rec.Reset()
	if len(rec.Steps()) != 0 {
		t.Error("reset kept steps")
	}
}
