package viewer

import (
	"github.com/charmbracelet/lipgloss"
)

// Terminal styles for command output. Adaptive colors switch with the
// terminal's light/dark background.
var (
	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#ADB5BD"})

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#28A745", Dark: "#4CDD76"}).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#DC3545", Dark: "#FF6B7D"}).
			Bold(true)

	ViewNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#007ACC", Dark: "#3D9EFF"}).
			Bold(true)
)
