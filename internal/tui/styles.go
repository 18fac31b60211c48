// Package tui provides the interactive interview prompt.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	questionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			MarginTop(1).
			MarginBottom(1)

	issueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(1, 2)
)
