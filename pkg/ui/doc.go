/*
Package ui defines the component tree sent to remote hosts.

A Node is a kind tag plus an ordered property bag. Hosts read the wire form

	{"type": "Text", "properties": {"text": "Hello", "fontSize": 24, "color": "#000000"}}

and rely on two conventions: property names are lower camel case, and a
"children" property, when present, is an ordered list of nodes emitted before
any other property.

# Building Trees

Go callers use the typed constructors:

	root := ui.Scaffold(
		ui.Column(ui.ColumnProps{},
			ui.Text(ui.TextProps{Text: "Count: 1", FontSize: 48}),
			ui.Button(ui.ButtonProps{Text: "Increment", OnClick: "increment"}),
		),
	)

Scripted renderers go through Catalog.Build, which accepts word-separated or
camel case names, fills declared defaults and passes unknown kinds and
properties through untouched.
*/
package ui
