package cli

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#7D56F4")
	successColor = lipgloss.Color("#73F59F")
	errorColor   = lipgloss.Color("#FF6B6B")
	warningColor = lipgloss.Color("#FFE066")
	mutedColor   = lipgloss.Color("#626262")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)

	tierStyles = map[string]lipgloss.Style{
		"BRONZE": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CD7F32")),
		"SILVER": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C0C0C0")),
		"GOLD":   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD700")),
	}
)
