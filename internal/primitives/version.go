package primitives

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
)

// ComputeVersion returns config.Version when set, otherwise a content hash of
// the tree. The hash covers structure, events, targets, priorities and action
// or guard identifiers; function references contribute only their type, so
// two configs differing only in function bodies share a version.
func ComputeVersion(config *MachineConfig) string {
	if config.Version != "" {
		return config.Version
	}
	h := sha256.New()
	fmt.Fprintf(h, "machine %q\n", config.ID)
	if config.Root != nil {
		writeState(h, config.Root, make(map[*StateConfig]bool))
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}

func writeState(w io.Writer, s *StateConfig, seen map[*StateConfig]bool) {
	if s == nil || seen[s] {
		return
	}
	seen[s] = true
	fmt.Fprintf(w, "state %q %s initial=%q history=%q\n", s.ID, s.EffectiveType(), s.Initial, s.History)
	writeRefs(w, "entry", s.Entry)
	writeRefs(w, "exit", s.Exit)
	writeRefs(w, "init", s.InitialActions)
	for _, h := range s.Handlers {
		fmt.Fprintf(w, "handler %s\n", refKey(h))
	}
	for _, t := range s.Transitions {
		fmt.Fprintf(w, "on %q -> [%s] prio=%d guard=%s\n", t.Event, strings.Join(t.AllTargets(), ","), t.Priority, refKey(t.Guard))
		writeRefs(w, "do", t.Actions)
	}
	for _, c := range s.Children {
		writeState(w, c, seen)
	}
	fmt.Fprintln(w, "end")
}

func writeRefs(w io.Writer, label string, refs []ActionRef) {
	for _, r := range refs {
		fmt.Fprintf(w, "%s %s\n", label, refKey(r))
	}
}

func refKey(r any) string {
	switch v := r.(type) {
	case nil:
		return "-"
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%T", v)
	}
}
