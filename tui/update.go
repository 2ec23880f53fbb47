// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"context"

	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/gate"
	"github.com/coursecast/coursecast/internal/ui"
	"github.com/coursecast/coursecast/log"
	"github.com/coursecast/coursecast/session"
	"github.com/coursecast/coursecast/tracker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type (
	lessonsMsg   []api.Lesson
	accessMsg    *gate.Access
	stateMsg     tracker.State
	saveErrorMsg struct{ err error }
	completedMsg *api.LessonDetail
	errorMsg     struct{ err error }
	doneMsg      struct {
		result *session.Result
		err    error
	}
)

// Init starts with the lesson list or straight with playback.
func (b *statefulBubble) Init() tea.Cmd {
	if b.options.LessonID > 0 {
		return tea.Batch(b.spinnerC.Tick, b.startSession(b.options.LessonID))
	}
	return tea.Batch(b.spinnerC.Tick, b.loadLessons())
}

func (b *statefulBubble) loadLessons() tea.Cmd {
	b.status = "Loading lessons"
	opts := b.options
	return func() tea.Msg {
		lessons, err := opts.Client.GetLessons(context.Background(), opts.SubCourseID, opts.Session.Token)
		if err != nil {
			return errorMsg{err}
		}
		return lessonsMsg(lessons)
	}
}

// startSession runs a session in the background; its hooks feed the update loop.
func (b *statefulBubble) startSession(lessonID int) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.lessonID = lessonID
	b.access = nil
	b.progress = tracker.State{}
	b.unlocked = false
	b.status = "Checking access"
	b.newState(loadingState)

	opts := b.options.Session
	opts.OnStart = func(a *gate.Access) { b.send(accessMsg(a)) }
	opts.OnUpdate = func(s tracker.State) { b.send(stateMsg(s)) }
	opts.OnPersistError = func(err error) { b.send(saveErrorMsg{err}) }
	opts.OnCompleted = func(d *api.LessonDetail) { b.send(completedMsg(d)) }

	s := session.New(b.options.Client, b.options.Launcher, opts)
	return func() tea.Msg {
		result, err := s.Run(ctx, lessonID)
		return doneMsg{result: result, err: err}
	}
}

func (b *statefulBubble) stopSession() {
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, nil
	case tea.KeyMsg:
		if key.Matches(msg, b.keymap.forceQuit) {
			return b, b.quit()
		}
	case ui.NotificationMsg, ui.ClearNotificationMsg:
		return b, b.notifier.Update(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return b, cmd
	case progress.FrameMsg:
		model, cmd := b.progressC.Update(msg)
		b.progressC = model.(progress.Model)
		return b, cmd
	case errorMsg:
		b.raiseError(msg.err)
		return b, nil
	case lessonsMsg:
		b.setLessons(msg)
		b.newState(lessonsState)
		return b, nil
	case accessMsg:
		b.access = msg
		b.status = "Starting player"
		b.newState(playingState)
		return b, b.progressC.SetPercent(float64(msg.LastPersistedPercentage) / 100)
	case stateMsg:
		b.progress = tracker.State(msg)
		return b, b.progressC.SetPercent(float64(msg.HighWaterPercentage) / 100)
	case saveErrorMsg:
		log.Debugf("save failed: %v", msg.err)
		return b, ui.NotifySaveFailure()
	case completedMsg:
		b.unlocked = msg != nil
		return b, ui.Notify("Lesson completed")
	case doneMsg:
		return b, b.finish(msg)
	}

	switch b.state {
	case lessonsState:
		return b.updateLessons(msg)
	case playingState, loadingState:
		return b.updatePlaying(msg)
	case doneState, errorState:
		return b.updateDone(msg)
	}

	return b, nil
}

// quit stops a running session first so its final progress is flushed before the program exits.
func (b *statefulBubble) quit() tea.Cmd {
	if b.playing() {
		b.quitting = true
		b.status = "Saving progress"
		b.stopSession()
		return nil
	}
	return tea.Quit
}

func (b *statefulBubble) finish(msg doneMsg) tea.Cmd {
	b.cancel = nil
	if msg.result != nil {
		b.result = msg.result
		b.progress = msg.result.Final
	}

	if b.quitting {
		return tea.Quit
	}

	if msg.err != nil {
		b.raiseError(msg.err)
		return nil
	}

	b.newState(doneState)
	return nil
}

func (b *statefulBubble) updateLessons(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && b.lessonsC.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, b.keymap.play):
			if item, ok := b.lessonsC.SelectedItem().(*listItem); ok {
				return b, b.startSession(item.lesson.ID)
			}
			return b, nil
		case key.Matches(msg, b.keymap.reload):
			b.newState(loadingState)
			return b, b.loadLessons()
		}
	}

	var cmd tea.Cmd
	b.lessonsC, cmd = b.lessonsC.Update(msg)
	return b, cmd
}

func (b *statefulBubble) updatePlaying(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, b.keymap.stop) && b.playing() {
		b.status = "Saving progress"
		b.stopSession()
	}
	return b, nil
}

func (b *statefulBubble) updateDone(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil
	}

	switch {
	case key.Matches(keyMsg, b.keymap.quit):
		return b, tea.Quit
	case key.Matches(keyMsg, b.keymap.back):
		if b.options.SubCourseID > 0 {
			b.newState(loadingState)
			return b, b.loadLessons()
		}
		return b, tea.Quit
	}
	return b, nil
}
