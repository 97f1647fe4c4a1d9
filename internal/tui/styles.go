package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Strikethrough(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	formStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170"))

	badgeBase = lipgloss.NewStyle().Padding(0, 1)

	badgeStyles = map[string]lipgloss.Style{
		"high":   badgeBase.Background(lipgloss.Color("52")).Foreground(lipgloss.Color("217")),
		"normal": badgeBase.Background(lipgloss.Color("17")).Foreground(lipgloss.Color("153")),
		"low":    badgeBase.Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252")),
	}
)

func badge(urgency string) string {
	s, ok := badgeStyles[urgency]
	if !ok {
		s = badgeStyles["normal"]
	}
	return s.Render(urgency)
}
