package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`                          _             _`, "#818cf8"},
	{` _ __ ___ _ __ ___   ___ | |_ ___ _   _(_)`, "#a78bfa"},
	{"| '__/ _ \\ '_ ` _ \\ / _ \\| __/ _ \\ | | | |", "#c084fc"},
	{`| | |  __/ | | | | | (_) | ||  __/ |_| | |`, "#e879f9"},
	{`|_|  \___|_| |_| |_|\___/ \__\___|\__,_|_|`, "#f472b6"},
}

// PrintBanner writes the remoteui banner to w. Serve writes it to stderr so
// stdout stays free for the MCP transport.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w)
}
