// Package style provides a functional API for composing and applying lipgloss-based TUI styles.
package style

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/coursecast/coursecast/color"
)

// New returns an empty lipgloss.Style used as a foundation for visual composition.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Colored initializes a new style with the specified foreground and background colors.
func Colored(fg, bg lipgloss.Color) lipgloss.Style {
	return New().Foreground(fg).Background(bg)
}

// Fg returns a stateless rendering function that applies the specified foreground color to a string.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return Colored(c, "").Render(s) }
}

// Truncate returns a rendering function that constrains the output string to a specified maximum width.
func Truncate(max int) func(string) string {
	return func(s string) string { return New().Width(max).Render(s) }
}

var (
	Faint = func(s string) string { return New().Faint(true).Render(s) }
	Bold  = func(s string) string { return New().Bold(true).Render(s) }
)

// Title renders a padded banner for screen headers.
var Title = func(s string) string {
	return Colored(color.New("230"), color.New("62")).Padding(0, 1).Render(s)
}

// ErrorTitle renders a banner in error colors.
var ErrorTitle = func(s string) string {
	return Colored(color.New("230"), color.Red).Padding(0, 1).Render(s)
}

// Percentage renders a watch percentage, green once it reaches the completion threshold.
func Percentage(pct, threshold int) string {
	s := fmt.Sprintf("%3d%%", pct)
	switch {
	case threshold > 0 && pct >= threshold:
		return Fg(SuccessColor)(s)
	case pct > 0:
		return Fg(WarningColor)(s)
	default:
		return Faint(s)
	}
}
