package ui

import "github.com/charmbracelet/x/ansi"

// DefaultWrapWidth is the column limit for wrapped commit bodies
const DefaultWrapWidth = 80

// WrapText wraps text at word boundaries to width terminal cells. A word longer
// than width stays whole on its own line; existing line breaks are kept.
func WrapText(text string, width int) string {
	return ansi.Wordwrap(text, width, "")
}
