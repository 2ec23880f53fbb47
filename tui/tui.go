// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"context"

	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/session"
	tea "github.com/charmbracelet/bubbletea"
)

// Client is the backend surface the interface needs. *api.Client implements it.
type Client interface {
	session.Client
	GetLessons(ctx context.Context, subCourseID int, token string) ([]api.Lesson, error)
}

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	// SubCourseID opens the lesson list of a sub-course.
	SubCourseID int

	// LessonID starts playing a lesson right away.
	LessonID int

	Client   Client
	Launcher session.Launcher
	Session  session.Options
}

// Run initializes and executes the primary Bubble Tea application loop.
// It returns the result of the last session played, if any.
func Run(options *Options) (*session.Result, error) {
	bubble := newBubble(options)

	if options.LessonID > 0 {
		bubble.newState(loadingState)
	} else {
		bubble.newState(lessonsState)
	}

	program := tea.NewProgram(bubble, tea.WithAltScreen())
	bubble.send = program.Send

	_, err := program.Run()
	return bubble.result, err
}
