package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders step titles and prompts as markdown using glamour.
// If the terminal style cannot be detected, text is returned unchanged.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(s string) (string, error) { return s, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
