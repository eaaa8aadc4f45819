package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// ChildrenKey is the property holding a node's ordered child list.
const ChildrenKey = "children"

// Node is a single element of a UI description.
//
// Property values are scalars (string, bool, int, float64), a nested *Node or
// an ordered []*Node. Nodes are not safe for concurrent mutation; renderers
// build a fresh tree per call.
type Node struct {
	Kind  string
	props *orderedmap.OrderedMap[string, any]
}

// New creates an empty node of the given kind.
func New(kind string) *Node {
	return &Node{
		Kind:  kind,
		props: orderedmap.New[string, any](),
	}
}

// Set stores a property under its wire name and returns the node for chaining.
// Setting an existing name keeps its original position.
func (n *Node) Set(name string, value any) *Node {
	n.ensure()
	key := WireName(name)
	value = normalize(value)
	if items, ok := value.([]any); ok && len(items) == 0 && key == ChildrenKey {
		value = []*Node{}
	}
	n.props.Set(key, value)
	return n
}

// Get returns the property stored under name (either casing).
func (n *Node) Get(name string) (any, bool) {
	if n == nil || n.props == nil {
		return nil, false
	}
	return n.props.Get(WireName(name))
}

// String returns a string property, or "" when absent or not a string.
func (n *Node) String(name string) string {
	v, _ := n.Get(name)
	s, _ := v.(string)
	return s
}

// Keys returns the wire property names in insertion order.
func (n *Node) Keys() []string {
	if n == nil || n.props == nil {
		return nil
	}
	keys := make([]string, 0, n.props.Len())
	for pair := n.props.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len reports the number of properties.
func (n *Node) Len() int {
	if n == nil || n.props == nil {
		return 0
	}
	return n.props.Len()
}

// Children returns the node's child list, or nil when it has none.
func (n *Node) Children() []*Node {
	v, ok := n.Get(ChildrenKey)
	if !ok {
		return nil
	}
	children, _ := v.([]*Node)
	return children
}

// Append adds children, creating the children property if needed.
func (n *Node) Append(children ...*Node) *Node {
	return n.Set(ChildrenKey, append(n.Children(), children...))
}

// Walk visits n and its descendants depth first, children in order.
// Returning false from fn stops the walk.
func (n *Node) Walk(fn func(depth int, node *Node) bool) {
	n.walk(0, fn)
}

func (n *Node) walk(depth int, fn func(int, *Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(depth, n) {
		return false
	}
	for _, child := range n.Children() {
		if !child.walk(depth+1, fn) {
			return false
		}
	}
	return true
}

// Find returns the first node, in depth-first order, matching pred.
func (n *Node) Find(pred func(*Node) bool) *Node {
	var found *Node
	n.Walk(func(_ int, node *Node) bool {
		if pred(node) {
			found = node
			return false
		}
		return true
	})
	return found
}

func (n *Node) ensure() {
	if n.props == nil {
		n.props = orderedmap.New[string, any]()
	}
}

// orderedKeys yields children first, then every other key in insertion order.
func (n *Node) orderedKeys() []string {
	keys := n.Keys()
	if _, ok := n.props.Get(ChildrenKey); !ok {
		return keys
	}
	out := make([]string, 0, len(keys))
	out = append(out, ChildrenKey)
	for _, k := range keys {
		if k != ChildrenKey {
			out = append(out, k)
		}
	}
	return out
}

// MarshalJSON writes the wire form. The output is byte-identical for
// logically identical trees.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) encode(buf *bytes.Buffer) error {
	kind, err := json.Marshal(n.Kind)
	if err != nil {
		return err
	}
	buf.WriteString(`{"type":`)
	buf.Write(kind)
	buf.WriteString(`,"properties":{`)
	if n.props != nil {
		for i, key := range n.orderedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			v, _ := n.props.Get(key)
			if err := encodeValue(buf, v); err != nil {
				return fmt.Errorf("property %q of %s: %w", key, n.Kind, err)
			}
		}
	}
	buf.WriteString("}}")
	return nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case *Node:
		if val == nil {
			buf.WriteString("null")
			return nil
		}
		return val.encode(buf)
	case []*Node:
		buf.WriteByte('[')
		for i, child := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, child); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}

// UnmarshalJSON reads the wire form back into n.
func (n *Node) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type       string                                          `json:"type"`
		Properties *orderedmap.OrderedMap[string, json.RawMessage] `json:"properties"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	n.Kind = wire.Type
	n.props = orderedmap.New[string, any]()
	if wire.Properties == nil {
		return nil
	}
	for pair := wire.Properties.Oldest(); pair != nil; pair = pair.Next() {
		v, err := decodeValue(pair.Value)
		if err != nil {
			return fmt.Errorf("property %q of %s: %w", pair.Key, n.Kind, err)
		}
		n.props.Set(pair.Key, v)
	}
	return nil
}

// Parse reads a serialized tree. Integral numbers come back as int.
func Parse(data []byte) (*Node, error) {
	n := &Node{}
	if err := json.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("parse node: %w", err)
	}
	return n, nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	switch raw[0] {
	case '{':
		if looksLikeNode(raw) {
			child := &Node{}
			if err := json.Unmarshal(raw, child); err != nil {
				return nil, err
			}
			return child, nil
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		if allNodes(items) {
			nodes := make([]*Node, 0, len(items))
			for _, item := range items {
				child := &Node{}
				if err := json.Unmarshal(item, child); err != nil {
					return nil, err
				}
				nodes = append(nodes, child)
			}
			return nodes, nil
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return fromJSON(v), nil
}

func looksLikeNode(raw json.RawMessage) bool {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return false
	}
	_, hasType := keys["type"]
	_, hasProps := keys["properties"]
	return hasType && hasProps && len(keys) == 2
}

// allNodes is true for an empty list too, so "children": [] stays a node list.
func allNodes(items []json.RawMessage) bool {
	for _, item := range items {
		if !looksLikeNode(item) {
			return false
		}
	}
	return true
}

func fromJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
			return int(i)
		}
		f, _ := val.Float64()
		return f
	case []any:
		for i := range val {
			val[i] = fromJSON(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = fromJSON(val[k])
		}
		return val
	default:
		return val
	}
}

// normalize folds the numeric types produced by Go callers and script
// runtimes onto int and float64.
func normalize(v any) any {
	switch val := v.(type) {
	case int8:
		return int(val)
	case int16:
		return int(val)
	case int32:
		return int(val)
	case int64:
		return int(val)
	case uint8:
		return int(val)
	case uint16:
		return int(val)
	case uint32:
		return int(val)
	case float32:
		return float64(val)
	case []any:
		if nodes, ok := asNodes(val); ok {
			return nodes
		}
		return val
	default:
		return v
	}
}

func asNodes(items []any) ([]*Node, bool) {
	if len(items) == 0 {
		return nil, false
	}
	nodes := make([]*Node, 0, len(items))
	for _, item := range items {
		child, ok := item.(*Node)
		if !ok {
			return nil, false
		}
		nodes = append(nodes, child)
	}
	return nodes, true
}

// Equal reports whether two trees have the same kinds, property names,
// property order and values. Numbers compare by value, so 14 equals 14.0.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Len() != b.Len() {
		return false
	}
	ak, bk := a.orderedKeysOrNil(), b.orderedKeysOrNil()
	for i := range ak {
		if ak[i] != bk[i] {
			return false
		}
		av, _ := a.props.Get(ak[i])
		bv, _ := b.props.Get(bk[i])
		if !equalValue(av, bv) {
			return false
		}
	}
	return true
}

func (n *Node) orderedKeysOrNil() []string {
	if n.props == nil {
		return nil
	}
	return n.orderedKeys()
}

func equalValue(a, b any) bool {
	switch av := a.(type) {
	case *Node:
		bv, ok := b.(*Node)
		return ok && Equal(av, bv)
	case []*Node:
		bv, ok := b.([]*Node)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	}
	if af, ok := number(a); ok {
		bf, ok := number(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// MarshalYAML renders the node as an order-preserving YAML mapping.
func (n *Node) MarshalYAML() (any, error) {
	return n.yamlNode()
}

func (n *Node) yamlNode() (*yaml.Node, error) {
	props := &yaml.Node{Kind: yaml.MappingNode}
	if n.props != nil {
		for _, key := range n.orderedKeys() {
			v, _ := n.props.Get(key)
			val, err := yamlValue(v)
			if err != nil {
				return nil, fmt.Errorf("property %q of %s: %w", key, n.Kind, err)
			}
			props.Content = append(props.Content, scalar(key), val)
		}
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalar("type"), scalar(n.Kind),
			scalar("properties"), props,
		},
	}, nil
}

func yamlValue(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case *Node:
		if val == nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
		}
		return val.yamlNode()
	case []*Node:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, child := range val {
			item, err := yamlValue(child)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, item)
		}
		return seq, nil
	default:
		out := &yaml.Node{}
		if err := out.Encode(val); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
