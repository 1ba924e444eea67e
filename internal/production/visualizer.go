package production

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/comalice/chartkit/internal/core"
)

// ExportDOT generates Graphviz DOT source for def. Composite states render as
// clusters; states listed in active are filled.
func ExportDOT(def *core.Definition, active []string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", def.ID())
	buf.WriteString(`  compound=true;
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	on := make(map[string]bool, len(active))
	for _, id := range active {
		on[id] = true
	}
	states := def.States()
	byID := make(map[string]core.StateInfo, len(states))
	for _, s := range states {
		byID[s.ID] = s
	}
	renderState(&buf, byID, byID[def.Root()], on, 1)

	for _, t := range def.Transitions() {
		label := t.Event
		if t.Guard != "" {
			label += " [" + t.Guard + "]"
		}
		if len(t.Targets) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q, style=dashed];\n", anchor(byID, t.Source), anchor(byID, t.Source), label)
			continue
		}
		for _, target := range t.Targets {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q%s];\n",
				anchor(byID, t.Source), anchor(byID, target), label, clusterAttrs(byID, t.Source, target))
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

func composite(s core.StateInfo) bool {
	return s.Kind == core.KindCompound || s.Kind == core.KindOrthogonal
}

// anchor is the node standing for a state: itself for leaves, the hidden
// marker node inside the cluster for composites.
func anchor(byID map[string]core.StateInfo, id string) string {
	if composite(byID[id]) {
		return id + "#"
	}
	return id
}

func clusterAttrs(byID map[string]core.StateInfo, from, to string) string {
	var attrs []string
	if composite(byID[from]) {
		attrs = append(attrs, fmt.Sprintf("ltail=%q", "cluster_"+from))
	}
	if composite(byID[to]) {
		attrs = append(attrs, fmt.Sprintf("lhead=%q", "cluster_"+to))
	}
	if len(attrs) == 0 {
		return ""
	}
	return ", " + strings.Join(attrs, ", ")
}

func renderState(buf *bytes.Buffer, byID map[string]core.StateInfo, s core.StateInfo, active map[string]bool, depth int) {
	indent := strings.Repeat("  ", depth)
	if !composite(s) {
		attrs := ""
		switch {
		case active[s.ID]:
			attrs = ", style=\"rounded,filled\", fillcolor=lightgreen"
		}
		if s.Kind == core.KindFinal {
			attrs += ", peripheries=2"
		}
		fmt.Fprintf(buf, "%s%q [label=%q%s];\n", indent, s.ID, s.ID, attrs)
		return
	}

	fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+s.ID)
	label := s.ID
	if s.History != core.HistoryNone {
		label += " (H" + map[core.HistoryMode]string{core.HistoryShallow: "", core.HistoryDeep: "*"}[s.History] + ")"
	}
	fmt.Fprintf(buf, "%s  label=%q;\n", indent, label)
	switch {
	case active[s.ID]:
		fmt.Fprintf(buf, "%s  style=filled; fillcolor=orange;\n", indent)
	case s.Kind == core.KindOrthogonal:
		fmt.Fprintf(buf, "%s  style=dashed;\n", indent)
	}
	fmt.Fprintf(buf, "%s  %q [label=\"\", shape=point, style=invis];\n", indent, s.ID+"#")
	for _, c := range s.Children {
		renderState(buf, byID, byID[c], active, depth+1)
	}
	if s.Initial != "" {
		fmt.Fprintf(buf, "%s  %q [label=\"\", shape=point];\n", indent, s.ID+"#init")
		fmt.Fprintf(buf, "%s  %q -> %q%s;\n", indent, s.ID+"#init", anchor(byID, s.Initial), headAttr(byID, s.Initial))
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}

func headAttr(byID map[string]core.StateInfo, to string) string {
	if composite(byID[to]) {
		return fmt.Sprintf(" [lhead=%q]", "cluster_"+to)
	}
	return ""
}
