package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the funnel ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Indigo to rose, one shade per line
	lines := []struct{ text, color string }{
		{`  ___                      _ `, "#818cf8"},
		{` / __\_   _ _ __  _ __   ___| |`, "#a78bfa"},
		{`/ _\| | | | '_ \| '_ \ / _ \ |`, "#c084fc"},
		{`/ /  | |_| | | | | | | |  __/ |`, "#e879f9"},
		{`\/    \__,_|_| |_|_| |_|\___|_|`, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Accent colors a short status line (confirmation, errors) for terminals that support it.
func Accent(s string, color string) string {
	return termenv.String(s).Foreground(termenv.ColorProfile().Color(color)).Bold().String()
}
