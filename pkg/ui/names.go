package ui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
)

// WireName maps a constructor-level property name ("font_size", "on click")
// to the key hosts expect on the wire ("fontSize", "onClick").
// Names that are already lower camel case are returned unchanged.
func WireName(name string) string {
	if name == "" {
		return name
	}
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsLower(r) && !strings.ContainsAny(name, "_- .") {
		return name
	}
	return strcase.ToLowerCamel(name)
}
