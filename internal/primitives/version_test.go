package primitives

import "testing"

func TestComputeVersion(t *testing.T) {
	build := func(target string) *MachineConfig {
		root := NewStateConfig("root", Compound)
		root.State("A").Transition("go", target)
		root.State("B")
		return &MachineConfig{ID: "m", Root: root}
	}

	v1 := ComputeVersion(build("B"))
	v2 := ComputeVersion(build("B"))
	if v1 != v2 {
		t.Errorf("version not deterministic: %s vs %s", v1, v2)
	}
	if len(v1) != 16 {
		t.Errorf("version %q should be 16 hex chars", v1)
	}
	if v3 := ComputeVersion(build("A")); v3 == v1 {
		t.Error("different targets produced the same version")
	}

	pinned := build("B")
	pinned.Version = "2024-rc1"
	if got := ComputeVersion(pinned); got != "2024-rc1" {
		t.Errorf("explicit version ignored: %s", got)
	}
}

func TestComputeVersionWithFunctionRefs(t *testing.T) {
	root := NewStateConfig("root", Compound)
	root.State("A").OnEntry(func() {})
	cfg := &MachineConfig{ID: "m", Root: root}
	if ComputeVersion(cfg) == "" {
		t.Error("empty version for config with function refs")
	}
}

func TestComputeVersionCoversHandlers(t *testing.T) {
	build := func(handlers ...HandlerRef) *MachineConfig {
		root := NewStateConfig("root", Compound)
		root.State("A").WithHandlers(handlers...)
		return &MachineConfig{ID: "m", Root: root}
	}
	if ComputeVersion(build()) == ComputeVersion(build("audit")) {
		t.Error("adding a handler kept the version")
	}
	if ComputeVersion(build("audit")) == ComputeVersion(build("trace")) {
		t.Error("handler names do not contribute to the version")
	}
}
