package tui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.Color("#2563EB") // Blue
	okColor     = lipgloss.Color("#10B981") // Green
	mutedColor  = lipgloss.Color("#6B7280") // Gray
	errorColor  = lipgloss.Color("#EF4444") // Red
)

var (
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(accentColor).
			Padding(0, 1)

	// Member rows
	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB"))

	dimStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(1, 0, 0, 0)

	successBadge = lipgloss.NewStyle().
			Foreground(okColor).
			Bold(true)

	errorBadge = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	// Diff lines: '+' only on disk, '-' only in the archive
	addedStyle   = lipgloss.NewStyle().Foreground(okColor)
	deletedStyle = lipgloss.NewStyle().Foreground(errorColor)
)
