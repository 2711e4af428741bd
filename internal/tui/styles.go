package tui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.Color("#d5c4a1")
	brandColor  = lipgloss.Color("9")

	brandStyle         = lipgloss.NewStyle().Bold(true).Foreground(brandColor)
	titleStyle         = lipgloss.NewStyle().Bold(true).Italic(true).Foreground(accentColor)
	metaStyle          = lipgloss.NewStyle().Foreground(accentColor)
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	abstractStyle      = lipgloss.NewStyle().Foreground(accentColor)
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	positionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)

	popupBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Foreground(lipgloss.Color("#0f0f0f")).
			Background(lipgloss.Color("#e0def4")).
			Padding(1, 2).
			Align(lipgloss.Center)
)

var popupColors = map[popupKind]lipgloss.Color{
	popupInfo:    lipgloss.Color("11"),
	popupSuccess: lipgloss.Color("10"),
	popupError:   lipgloss.Color("9"),
}

func popupStyles(kind popupKind) (box, header lipgloss.Style) {
	color, ok := popupColors[kind]
	if !ok {
		color = popupColors[popupInfo]
	}
	box = popupBoxStyle.Copy().BorderForeground(color)
	header = lipgloss.NewStyle().Bold(true).Foreground(color)
	return box, header
}
