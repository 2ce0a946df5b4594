package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "#39FF14"
	ColorError   lipgloss.Color = "#FF3366"
	ColorWarning lipgloss.Color = "#FFB000"
	ColorInfo    lipgloss.Color = "#00FFFF"
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "#E8E8F0"
	ColorSecondary lipgloss.Color = "#BD93F9"
	ColorMuted     lipgloss.Color = "#6C6C8A"
)

// GradientColors cycle through the spinner frames.
var GradientColors = []lipgloss.Color{"#FF2E97", "#BD93F9", "#00FFFF", "#39FF14"}

func SuccessStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorSuccess) }
func ErrorStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorError) }
func WarningStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorWarning) }
func MutedStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorMuted) }

// LabelStyle renders the left column of key/value output.
func LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
}

// DisableColors switches lipgloss to plain ASCII output (for --no-color).
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// ApplyColorMode applies output.color from config: "never" disables colors,
// "always" forces true color even when stdout isn't a terminal, and "auto"
// leaves terminal detection to termenv. NO_COLOR is honored in auto mode.
func ApplyColorMode(mode string) {
	switch strings.ToLower(mode) {
	case "never":
		DisableColors()
	case "always":
		lipgloss.SetColorProfile(termenv.TrueColor)
	default:
		if os.Getenv("NO_COLOR") != "" {
			DisableColors()
			return
		}
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
	}
}

// PrintWarning writes a warning line to stderr.
func PrintWarning(msg string) {
	fmt.Fprintln(os.Stderr, WarningStyle().Render(SymbolWarning+" "+msg))
}
