// Package style provides a functional API for composing and applying lipgloss-based TUI styles.
package style

import "github.com/charmbracelet/lipgloss"

// Base colors
var (
	Base = lipgloss.Color("#1e1e2e")
	Text = lipgloss.Color("#cdd6f4")
)

// Accents
var (
	Mauve  = lipgloss.Color("#cba6f7")
	Red    = lipgloss.Color("#f38ba8")
	Peach  = lipgloss.Color("#fab387")
	Yellow = lipgloss.Color("#f9e2af")
	Green  = lipgloss.Color("#a6e3a1")
)

// Semantic mappings
var (
	AccentColor  = Mauve
	SuccessColor = Green
	WarningColor = Yellow
	ErrorColor   = Red
	HiRed        = Red
)
