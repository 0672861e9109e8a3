package console

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds terminal styles for operator-facing output (attach hints,
// error lines on stderr). Console stream content itself is never styled
// here; glyphs carry the severity.
type Styles struct {
	Hint  lipgloss.Style
	Error lipgloss.Style
}

// NewStyles builds the style set. When the destination is not a
// terminal, all styles render as plain text.
func NewStyles(isTTY bool) Styles {
	if !isTTY {
		return Styles{
			Hint:  lipgloss.NewStyle(),
			Error: lipgloss.NewStyle(),
		}
	}
	return Styles{
		Hint:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}
