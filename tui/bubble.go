// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"context"
	"fmt"

	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/gate"
	"github.com/coursecast/coursecast/internal/ui"
	"github.com/coursecast/coursecast/session"
	"github.com/coursecast/coursecast/style"
	"github.com/coursecast/coursecast/tracker"
	"github.com/coursecast/coursecast/util"
	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// statefulBubble holds the screens of a viewing: the lesson list, the playback screen and its outcome.
type statefulBubble struct {
	state state

	keymap *statefulKeymap

	// components
	spinnerC  spinner.Model
	lessonsC  list.Model
	progressC progress.Model
	helpC     help.Model
	notifier  *ui.Model

	options *Options
	send    func(tea.Msg)
	cancel  context.CancelFunc

	lessonID  int
	access    *gate.Access
	progress  tracker.State
	result    *session.Result
	unlocked  bool
	lastError error
	status    string
	quitting  bool

	width, height int
}

// raiseError dispatches a terminal error and transitions the application to the failure view.
func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.newState(errorState)
}

func (b *statefulBubble) newState(s state) {
	b.state = s
	b.keymap.setState(s)
}

func (b *statefulBubble) resize(width, height int) {
	b.width, b.height = width, height

	x, y := paddingStyle.GetFrameSize()
	b.lessonsC.SetSize(width-x, height-y)
	b.helpC.Width = width
	b.progressC.Width = util.Clamp(width-x-10, 10, 80)
}

func (b *statefulBubble) playing() bool {
	return b.cancel != nil
}

func newBubble(options *Options) *statefulBubble {
	keymap := newStatefulKeymap()
	bubble := statefulBubble{
		keymap:   keymap,
		options:  options,
		notifier: &ui.Model{},
		send:     func(tea.Msg) {},
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(style.AccentColor).
		Foreground(style.AccentColor).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(lipgloss.Color("7"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

	bubble.lessonsC = list.New([]list.Item{}, delegate, 0, 0)
	bubble.lessonsC.KeyMap = keymap.forList()
	bubble.lessonsC.AdditionalShortHelpKeys = keymap.ShortHelp
	bubble.lessonsC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
		return keymap.FullHelp()[0]
	}
	bubble.lessonsC.Title = fmt.Sprintf("Lessons of sub-course %d", options.SubCourseID)
	bubble.lessonsC.Styles.Title = lipgloss.NewStyle().Foreground(style.Base).Background(style.Peach).Padding(0, 1)
	bubble.lessonsC.Styles.NoItems = paddingStyle
	bubble.lessonsC.SetStatusBarItemName("lesson", "lessons")

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	bubble.progressC = progress.New(progress.WithDefaultGradient())

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	return &bubble
}

func (b *statefulBubble) setLessons(lessons []api.Lesson) {
	next, hasNext := api.NextLesson(lessons)

	items := make([]list.Item, len(lessons))
	selected := 0
	for i := range lessons {
		l := &lessons[i]
		isNext := hasNext && l.ID == next.ID
		if isNext {
			selected = i
		}
		items[i] = &listItem{lesson: l, next: isNext}
	}

	b.lessonsC.SetItems(items)
	b.lessonsC.Select(selected)
}
