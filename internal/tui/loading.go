package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// renderLoadingRow renders the animated placeholder row shown while the
// first sync is in flight. The frame is selected from the current time
// so it animates on re-render.
func renderLoadingRow() string {
	frame := spinnerFrames[time.Now().UnixMilli()/120%int64(len(spinnerFrames))]

	loadingStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true)

	return "  " + loadingStyle.Render(frame+" Syncing your logins…")
}

// SpinnerTickMsg triggers a re-render while the placeholder is visible.
type SpinnerTickMsg struct{}
