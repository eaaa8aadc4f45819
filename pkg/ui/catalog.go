package ui

import (
	"sort"
	"sync"
)

// Canonical kinds understood by every host.
const (
	KindScaffold  = "Scaffold"
	KindColumn    = "Column"
	KindRow       = "Row"
	KindText      = "Text"
	KindButton    = "Button"
	KindTextField = "TextField"
)

// Field declares one property of a kind. Name is word separated
// ("font_size"); Default is nil when the field has none.
type Field struct {
	Name     string `json:"name"`
	Default  any    `json:"default,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// Prop is a named property value passed to Catalog.Build.
type Prop struct {
	Name  string
	Value any
}

// Catalog holds the declared fields of each node kind.
type Catalog struct {
	mu    sync.RWMutex
	kinds map[string][]Field
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{kinds: make(map[string][]Field)}
}

// DefaultCatalog returns a fresh catalog holding the canonical kinds.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	c.Define(KindScaffold,
		Field{Name: "children", Required: true},
	)
	c.Define(KindColumn,
		Field{Name: "children", Required: true},
		Field{Name: "vertical_arrangement", Default: ArrangeTop},
		Field{Name: "horizontal_alignment", Default: AlignStart},
	)
	c.Define(KindRow,
		Field{Name: "children", Required: true},
		Field{Name: "horizontal_arrangement", Default: ArrangeStart},
		Field{Name: "vertical_alignment", Default: AlignTop},
	)
	c.Define(KindText,
		Field{Name: "text", Required: true},
		Field{Name: "font_size", Default: DefaultFontSize},
		Field{Name: "color", Default: DefaultColor},
	)
	c.Define(KindButton,
		Field{Name: "text", Required: true},
		Field{Name: "on_click", Required: true},
	)
	c.Define(KindTextField,
		Field{Name: "value", Required: true},
		Field{Name: "on_value_change", Required: true},
	)
	return c
}

// Define adds or replaces a kind. Field order is the order properties are
// emitted in.
func (c *Catalog) Define(kind string, fields ...Field) {
	cp := make([]Field, len(fields))
	copy(cp, fields)
	c.mu.Lock()
	c.kinds[kind] = cp
	c.mu.Unlock()
}

// Fields returns the declared fields of kind.
func (c *Catalog) Fields(kind string) ([]Field, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fields, ok := c.kinds[kind]
	if !ok {
		return nil, false
	}
	cp := make([]Field, len(fields))
	copy(cp, fields)
	return cp, true
}

// Kinds lists the declared kinds in lexical order.
func (c *Catalog) Kinds() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	kinds := make([]string, 0, len(c.kinds))
	for k := range c.kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Clone returns an independent copy.
func (c *Catalog) Clone() *Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := NewCatalog()
	for kind, fields := range c.kinds {
		cp := make([]Field, len(fields))
		copy(cp, fields)
		out.kinds[kind] = cp
	}
	return out
}

// Build creates a node of kind from loosely named props.
//
// Declared fields come first in declaration order, absent ones taking their
// default. Remaining props follow in the order given. Unknown kinds are built
// from props alone. Missing required fields are left out.
func (c *Catalog) Build(kind string, props ...Prop) *Node {
	given := make(map[string]any, len(props))
	order := make([]string, 0, len(props))
	for _, p := range props {
		key := WireName(p.Name)
		if _, seen := given[key]; !seen {
			order = append(order, key)
		}
		given[key] = p.Value
	}

	n := New(kind)
	fields, _ := c.Fields(kind)
	declared := make(map[string]bool, len(fields))
	for _, f := range fields {
		key := WireName(f.Name)
		declared[key] = true
		if v, ok := given[key]; ok {
			n.Set(key, v)
		} else if f.Default != nil {
			n.Set(key, f.Default)
		}
	}
	for _, key := range order {
		if !declared[key] {
			n.Set(key, given[key])
		}
	}
	return n
}
