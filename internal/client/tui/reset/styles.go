package reset

import "github.com/charmbracelet/lipgloss"

var (
	primary   = lipgloss.Color("#7C3AED")
	secondary = lipgloss.Color("#10B981")
	danger    = lipgloss.Color("#EF4444")
	muted     = lipgloss.Color("#6B7280")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(primary)
	subtitleStyle = lipgloss.NewStyle().Foreground(muted).MarginBottom(1)
	labelStyle    = lipgloss.NewStyle().Foreground(muted).Width(14)
	valueStyle    = lipgloss.NewStyle().Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(danger)
	successStyle  = lipgloss.NewStyle().Foreground(secondary)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	stepDone    = lipgloss.NewStyle().Foreground(secondary).Render("●")
	stepCurrent = lipgloss.NewStyle().Foreground(primary).Bold(true).Render("●")
	stepTodo    = lipgloss.NewStyle().Foreground(muted).Render("○")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(1, 2)
)
