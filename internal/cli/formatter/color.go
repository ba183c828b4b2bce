// Package formatter renders barnlog data for the terminal.
package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/barnlog/internal/signals"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// WorkloadStyle colors a workload bucket by intensity.
func WorkloadStyle(w signals.Workload) lipgloss.Style {
	switch w {
	case signals.WorkloadHeavy:
		return StyleRed
	case signals.WorkloadModerate:
		return StyleYellow
	case signals.WorkloadLight:
		return StyleGreen
	default:
		return StyleDim
	}
}

// TrendIndicator renders a trend as an arrow and word, e.g. "↑ up".
func TrendIndicator(t signals.Trend) string {
	switch t {
	case signals.TrendUp:
		return StyleYellow.Render("↑ up")
	case signals.TrendDown:
		return StyleBlue.Render("↓ down")
	default:
		return StyleDim.Render("→ steady")
	}
}

// FlagIndicator renders a raised flag as a warning bullet.
func FlagIndicator(f signals.Flag) string {
	switch f {
	case signals.FlagSoundnessCheck:
		return StyleRed.Render("● soundness check mentioned recently")
	case signals.FlagNoteSparseRecent:
		return StyleYellow.Render("● few notes on recent rides")
	default:
		return StyleDim.Render("● " + string(f))
	}
}

// Header renders an uppercase section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(strings.Repeat("─", lipgloss.Width(upper))))
}

func Dim(text string) string  { return StyleDim.Render(text) }
func Bold(text string) string { return StyleBold.Render(text) }
