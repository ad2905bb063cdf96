package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorNavy   = lipgloss.Color("#1A1B3A")
	ColorWhite  = lipgloss.Color("#F8F8F2")
	ColorGray   = lipgloss.Color("#6B7089")
	ColorGreen  = lipgloss.Color("#49E209")
	ColorAmber  = lipgloss.Color("#FFAA00")
	ColorRed    = lipgloss.Color("#FF4444")
	ColorViolet = lipgloss.Color("#9D7CD8")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ColorViolet).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	selectedStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite).
			Bold(true)

	entryStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	usernameStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	disabledStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Faint(true)

	statusLineStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	noticeStyle = lipgloss.NewStyle().
			Foreground(ColorAmber)

	emptyStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)
)

// syncDot renders the colored indicator for a sync state name.
func syncDot(state string) string {
	var color lipgloss.Color
	switch state {
	case "Synced":
		color = ColorGreen
	case "Syncing", "ReadyToSync":
		color = ColorAmber
	case "Error":
		color = ColorRed
	default:
		color = ColorGray
	}
	return lipgloss.NewStyle().Foreground(color).Render("●")
}
