package console

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor  = lipgloss.Color("#7C3AED")
	successColor  = lipgloss.Color("#10B981")
	warningColor  = lipgloss.Color("#F59E0B")
	dangerColor   = lipgloss.Color("#EF4444")
	mutedColor    = lipgloss.Color("#6B7280")
	textColor     = lipgloss.Color("#F9FAFB")
	selectedColor = lipgloss.Color("#374151")
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(selectedColor).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(mutedColor)

	rowStyle = lipgloss.NewStyle().
			Foreground(textColor)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(textColor).
				Background(selectedColor)

	demoBadgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#111827")).
			Background(warningColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(dangerColor)
)

// statusStyle цвет статуса объявления или сделки
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "pending_admin_approval":
		return lipgloss.NewStyle().Foreground(warningColor)
	case "approved":
		return lipgloss.NewStyle().Foreground(successColor)
	case "closed":
		return lipgloss.NewStyle().Foreground(mutedColor)
	default:
		return lipgloss.NewStyle().Foreground(textColor)
	}
}
