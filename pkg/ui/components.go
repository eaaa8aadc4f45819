package ui

// Layout and style defaults.
const (
	ArrangeTop   = "Top"
	ArrangeStart = "Start"
	AlignStart   = "Start"
	AlignTop     = "Top"

	DefaultFontSize = 14
	DefaultColor    = "#000000"
)

var standard = DefaultCatalog()

// ColumnProps configures a Column. Empty fields take the catalog defaults.
type ColumnProps struct {
	VerticalArrangement string
	HorizontalAlignment string
}

// RowProps configures a Row. Empty fields take the catalog defaults.
type RowProps struct {
	HorizontalArrangement string
	VerticalAlignment     string
}

// TextProps configures a Text. A zero FontSize means 14.
type TextProps struct {
	Text     string
	FontSize int
	Color    string
}

// ButtonProps configures a Button. OnClick names the action posted on tap.
type ButtonProps struct {
	Text    string
	OnClick string
}

// TextFieldProps configures a TextField. OnValueChange names the action
// posted with the new value.
type TextFieldProps struct {
	Value         string
	OnValueChange string
}

// Scaffold is the root container of a screen.
func Scaffold(children ...*Node) *Node {
	return standard.Build(KindScaffold, Prop{"children", childList(children)})
}

// Column stacks children vertically.
func Column(p ColumnProps, children ...*Node) *Node {
	props := []Prop{{"children", childList(children)}}
	props = appendIf(props, "vertical_arrangement", p.VerticalArrangement)
	props = appendIf(props, "horizontal_alignment", p.HorizontalAlignment)
	return standard.Build(KindColumn, props...)
}

// Row lays children out horizontally.
func Row(p RowProps, children ...*Node) *Node {
	props := []Prop{{"children", childList(children)}}
	props = appendIf(props, "horizontal_arrangement", p.HorizontalArrangement)
	props = appendIf(props, "vertical_alignment", p.VerticalAlignment)
	return standard.Build(KindRow, props...)
}

// Text displays a string.
func Text(p TextProps) *Node {
	props := []Prop{{"text", p.Text}}
	if p.FontSize != 0 {
		props = append(props, Prop{"font_size", p.FontSize})
	}
	props = appendIf(props, "color", p.Color)
	return standard.Build(KindText, props...)
}

// Button posts OnClick when tapped.
func Button(p ButtonProps) *Node {
	return standard.Build(KindButton, Prop{"text", p.Text}, Prop{"on_click", p.OnClick})
}

// TextField is an editable string bound to an action.
func TextField(p TextFieldProps) *Node {
	return standard.Build(KindTextField, Prop{"value", p.Value}, Prop{"on_value_change", p.OnValueChange})
}

func childList(children []*Node) []*Node {
	if children == nil {
		return []*Node{}
	}
	return children
}

func appendIf(props []Prop, name, value string) []Prop {
	if value == "" {
		return props
	}
	return append(props, Prop{name, value})
}
