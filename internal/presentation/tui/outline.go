package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/remoteui/pkg/ui"
)

// labelKeys are shown inline after the kind instead of in the property list.
var labelKeys = map[string]bool{"text": true, "value": true}

// actionKeys name the action a control posts.
var actionKeys = map[string]bool{"onClick": true, "onValueChange": true}

// Outline renders a component tree as a nested markdown list, one line per
// node, for previewing in a terminal.
func Outline(root *ui.Node) string {
	if root == nil {
		return "_empty tree_\n"
	}
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(root.Kind)
	b.WriteString("\n\n")
	for _, child := range root.Children() {
		child.Walk(func(depth int, n *ui.Node) bool {
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString("- ")
			b.WriteString(outlineLine(n))
			b.WriteString("\n")
			return true
		})
	}
	return b.String()
}

func outlineLine(n *ui.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", n.Kind)

	var props []string
	for _, key := range n.Keys() {
		if key == ui.ChildrenKey {
			continue
		}
		v, _ := n.Get(key)
		switch {
		case labelKeys[key]:
			fmt.Fprintf(&b, " %q", fmt.Sprint(v))
		case actionKeys[key]:
			fmt.Fprintf(&b, " → `%v`", v)
		default:
			props = append(props, fmt.Sprintf("%s: %v", key, v))
		}
	}
	if len(props) > 0 {
		fmt.Fprintf(&b, " _(%s)_", strings.Join(props, ", "))
	}
	return b.String()
}
