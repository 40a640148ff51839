package ui

import "github.com/charmbracelet/lipgloss"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}
	highlight = lipgloss.AdaptiveColor{Light: "#1A5FB4", Dark: "#99C1F1"}
	warning   = lipgloss.AdaptiveColor{Light: "#C64600", Dark: "#FFBE6F"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(subtle)

	rowStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeftForeground(highlight).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(subtle)

	dueStyle = lipgloss.NewStyle().
			Foreground(subtle)

	statusStyle = lipgloss.NewStyle().
			Foreground(warning)

	helpStyle = lipgloss.NewStyle().
			Foreground(subtle)
)
