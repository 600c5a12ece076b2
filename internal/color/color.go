package color

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Palette entries adapt to the terminal background.
var (
	Success = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}
	Error   = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}
	Warning = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"}
	Muted   = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}
)

// Styles used by the run summary.
var (
	PassedStyle  = lipgloss.NewStyle().Foreground(Success)
	FailedStyle  = lipgloss.NewStyle().Foreground(Error).Bold(true)
	SkippedStyle = lipgloss.NewStyle().Foreground(Warning)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Disabled reports whether NO_COLOR asks for plain output.
func Disabled() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}
