package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/remoteui/pkg/ui"
)

// Overlay marks parts of the tree to highlight.
type Overlay struct {
	// Actions lists action names whose controls and targets are highlighted.
	Actions []string
}

// GenerateMermaid produces a Mermaid flowchart of a component tree.
// It applies semantic styling:
// - Scaffold: ((Circle))
// - Column/Row and other containers: [[Subroutine]]
// - Button/TextField and other controls: [/Parallelogram/]
// - Default: [Rectangle]
// Actions posted by controls become shared {{hexagon}} targets joined by
// dotted edges.
func GenerateMermaid(root *ui.Node, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if root == nil {
		return sb.String()
	}

	g := &generator{sb: &sb, actions: make(map[string][]string)}
	g.node("n0", root)

	names := make([]string, 0, len(g.actions))
	for name := range g.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "    %s{{\"%s\"}}\n", actionID(name), escape(name))
	}

	if overlay != nil && len(overlay.Actions) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef active fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		seen := make(map[string]bool)
		for _, name := range overlay.Actions {
			controls, ok := g.actions[name]
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			fmt.Fprintf(&sb, "    class %s active;\n", actionID(name))
			for _, id := range controls {
				fmt.Fprintf(&sb, "    class %s active;\n", id)
			}
		}
	}
	return sb.String()
}

type generator struct {
	sb      *strings.Builder
	actions map[string][]string
}

func (g *generator) node(id string, n *ui.Node) {
	children := n.Children()

	opener, closer := "[", "]"
	switch {
	case n.Kind == ui.KindScaffold:
		opener, closer = "((", "))"
	case len(children) > 0 || n.Kind == ui.KindColumn || n.Kind == ui.KindRow:
		opener, closer = "[[", "]]"
	case actionOf(n) != "":
		opener, closer = "[/", "/]"
	}

	label := n.Kind
	if text := labelOf(n); text != "" {
		label = fmt.Sprintf("%s <br/> %s", n.Kind, escape(text))
	}
	fmt.Fprintf(g.sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

	if action := actionOf(n); action != "" {
		g.actions[action] = append(g.actions[action], id)
		fmt.Fprintf(g.sb, "    %s -. ⚡ .-> %s\n", id, actionID(action))
	}

	for i, child := range children {
		childID := id + "_" + strconv.Itoa(i)
		fmt.Fprintf(g.sb, "    %s --> %s\n", id, childID)
		g.node(childID, child)
	}
}

func labelOf(n *ui.Node) string {
	if s := n.String("text"); s != "" {
		return s
	}
	return n.String("value")
}

func actionOf(n *ui.Node) string {
	if s := n.String("on_click"); s != "" {
		return s
	}
	return n.String("on_value_change")
}

func actionID(name string) string {
	return "act_" + sanitizeMermaidID(name)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
