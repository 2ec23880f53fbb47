// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"fmt"
	"strings"

	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/icon"
	"github.com/coursecast/coursecast/style"
	"github.com/charmbracelet/lipgloss"
)

// listItem implements the list.Item interface for a lesson of the listing.
type listItem struct {
	lesson *api.Lesson

	// next marks the lesson to continue with.
	next bool
}

// Marker is the status icon of a lesson in listings.
func Marker(l *api.Lesson) string {
	switch {
	case l.IsCompleted:
		return icon.Get(icon.Completed)
	case l.IsLocked:
		return icon.Get(icon.Locked)
	case l.IsPreview:
		return icon.Get(icon.Preview)
	default:
		return ""
	}
}

// Title retrieves the primary display text for the list item.
func (t *listItem) Title() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d. %s", t.lesson.Order, t.lesson.Title))

	if mark := Marker(t.lesson); mark != "" {
		sb.WriteString(" ")
		sb.WriteString(mark)
	}

	if t.next {
		sb.WriteString(" ")
		sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(style.AccentColor).Render(icon.Get(icon.Continue) + " continue here"))
	}

	return sb.String()
}

// Description retrieves the secondary metadata for the list item.
func (t *listItem) Description() string {
	var parts []string
	if t.lesson.DurationMinutes > 0 {
		parts = append(parts, fmt.Sprintf("%d min", t.lesson.DurationMinutes))
	}
	if t.lesson.IsLocked {
		parts = append(parts, "locked")
	}
	if t.lesson.IsPreview {
		parts = append(parts, "free preview")
	}
	if t.lesson.ShortDescription != "" {
		parts = append(parts, t.lesson.ShortDescription)
	}
	return style.Faint(strings.Join(parts, " · "))
}

// FilterValue returns the lesson title used for filtering.
func (t *listItem) FilterValue() string {
	return t.lesson.Title
}
