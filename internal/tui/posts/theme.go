// Package posts implements the interactive monitored-posts manager TUI.
package posts

import "github.com/charmbracelet/lipgloss"

// Theme centralizes all styling for the posts TUI.
type Theme struct {
	Title     lipgloss.Style
	Header    lipgloss.Style
	Enabled   lipgloss.Style
	Disabled  lipgloss.Style
	Selected  lipgloss.Style
	Dim       lipgloss.Style
	Status    lipgloss.Style
	ErrorText lipgloss.Style
	Prompt    lipgloss.Style
}

func NewDefaultTheme() Theme {
	purple := lipgloss.Color("#874BFD")

	return Theme{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(purple),
		Header:    lipgloss.NewStyle().Bold(true),
		Enabled:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		Disabled:  lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(purple),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")),
		ErrorText: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		Prompt:    lipgloss.NewStyle().Foreground(purple),
	}
}
