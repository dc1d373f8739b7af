package pager

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains the style definitions for the pager
type Styles struct {
	Position lipgloss.Style
	Prompt   lipgloss.Style
	Running  lipgloss.Style
	Exited   lipgloss.Style
	Failed   lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Position: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFFF00")),
		Prompt:  lipgloss.NewStyle().Bold(true),
		Running: lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Exited:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}
