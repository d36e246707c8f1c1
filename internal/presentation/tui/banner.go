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
	{"   __ _                                               ", "#34d399"},
	{"  / _| | _____      _____ __ _ _ ____   ____ _ ___   ", "#2dd4bf"},
	{" | |_| |/ _ \\ \\ /\\ / / __/ _` | '_ \\ \\ / / _` / __|", "#22d3ee"},
	{" |  _| | (_) \\ V  V / (_| (_| | | | \\ V / (_| \\__ \\", "#818cf8"},
	{" |_| |_|\\___/ \\_/\\_/ \\___\\__,_|_| |_|\\_/ \\__,_|___/", "#c084fc"},
}

// PrintBanner writes the flowcanvas ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
