// Package ui provides internal state management and rendering utilities for ephemeral terminal notifications.
package ui

import (
	"strings"
	"time"

	"github.com/coursecast/coursecast/style"
	tea "github.com/charmbracelet/bubbletea"
)

const lifetime = 3 * time.Second

// Model encapsulates the state for displaying non-blocking terminal alerts.
type Model struct {
	notification string
	notifiedAt   time.Time
}

// NotificationMsg carries the text of a new alert.
type NotificationMsg string

// ClearNotificationMsg is a Bubbletea message used to reset the visual notification state.
type ClearNotificationMsg struct {
	at time.Time
}

// Notify returns a tea.Cmd that shows text as an alert.
func Notify(text string) tea.Cmd {
	return func() tea.Msg {
		return NotificationMsg(text)
	}
}

// NotifySaveFailure alerts that a progress save failed and will be retried.
func NotifySaveFailure() tea.Cmd {
	return Notify("Progress not saved - retrying at the next checkpoint")
}

func clearAfter(at time.Time) tea.Cmd {
	return tea.Tick(lifetime, func(time.Time) tea.Msg {
		return ClearNotificationMsg{at: at}
	})
}

// Update processes incoming messages to modify the notification state.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case NotificationMsg:
		m.notification = string(msg)
		m.notifiedAt = time.Now()
		return clearAfter(m.notifiedAt)
	case ClearNotificationMsg:
		// A newer alert keeps its own lifetime.
		if msg.at.Equal(m.notifiedAt) {
			m.notification = ""
		}
	}
	return nil
}

// Current returns the alert being shown, if any.
func (m *Model) Current() string {
	return m.notification
}

// View appends the current notification to the last line of mainContent.
func (m *Model) View(mainContent string) string {
	if m.notification == "" {
		return mainContent
	}

	lines := strings.Split(mainContent, "\n")
	lines[len(lines)-1] += "  " + style.Faint(m.notification)
	return strings.Join(lines, "\n")
}
