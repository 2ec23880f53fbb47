package tui

import (
	"testing"

	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/gate"
	"github.com/coursecast/coursecast/key"
	"github.com/coursecast/coursecast/session"
	"github.com/coursecast/coursecast/tracker"
	tea "github.com/charmbracelet/bubbletea"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestBubble(t *testing.T) {
	viper.Set(key.IconsVariant, "plain")

	Convey("Given the lesson list screen", t, func() {
		b := newBubble(&Options{SubCourseID: 2})
		b.resize(100, 40)

		Convey("Loaded lessons preselect the one to continue with", func() {
			b.Update(lessonsMsg([]api.Lesson{
				{ID: 1, Order: 1, Title: "Intro", IsCompleted: true},
				{ID: 2, Order: 2, Title: "Setup"},
				{ID: 3, Order: 3, Title: "Deploy", IsLocked: true},
			}))
			So(b.state, ShouldEqual, lessonsState)

			item, ok := b.lessonsC.SelectedItem().(*listItem)
			So(ok, ShouldBeTrue)
			So(item.lesson.ID, ShouldEqual, 2)
			So(item.Title(), ShouldContainSubstring, "continue here")
		})

		Convey("A denial is shown as such", func() {
			b.Update(doneMsg{err: &gate.DeniedError{LessonID: 3, Reason: gate.Locked}})
			So(b.state, ShouldEqual, errorState)
			So(b.View(), ShouldContainSubstring, "Access Denied")
		})
	})

	Convey("Given a running session", t, func() {
		b := newBubble(&Options{LessonID: 7})
		b.resize(100, 40)
		cancelled := false
		b.cancel = func() { cancelled = true }
		b.Update(accessMsg(&gate.Access{LessonID: 7, Title: "Closures", RequiredCompletionPercentage: 80}))
		So(b.state, ShouldEqual, playingState)
		So(b.View(), ShouldContainSubstring, "Watch 80% to complete")

		b.Update(stateMsg(tracker.State{Phase: tracker.Active, HighWaterPercentage: 42, SavedPercentage: 30}))
		So(b.progress.HighWaterPercentage, ShouldEqual, 42)

		Convey("Quitting waits for the session to flush", func() {
			_, cmd := b.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
			So(cmd, ShouldBeNil)
			So(cancelled, ShouldBeTrue)

			_, cmd = b.Update(doneMsg{result: &session.Result{Final: tracker.State{HighWaterPercentage: 42, SavedPercentage: 42}}})
			So(cmd, ShouldNotBeNil)
			So(b.result, ShouldNotBeNil)
		})

		Convey("A finished session shows its outcome", func() {
			b.Update(completedMsg(&api.LessonDetail{}))
			b.Update(doneMsg{result: &session.Result{Final: tracker.State{Confirmed: true, HighWaterPercentage: 100, SavedPercentage: 100}}})
			So(b.state, ShouldEqual, doneState)
			So(b.View(), ShouldContainSubstring, "Next lesson unlocked")
		})
	})
}

func TestSummaryLines(t *testing.T) {
	viper.Set(key.IconsVariant, "plain")

	Convey("Given session results", t, func() {
		Convey("Queued progress is announced", func() {
			out := SummaryLines(&session.Result{Queued: true, Final: tracker.State{HighWaterPercentage: 50}})
			So(out, ShouldContainSubstring, "next start")
		})

		Convey("Saved progress is confirmed", func() {
			out := SummaryLines(&session.Result{Final: tracker.State{HighWaterPercentage: 50, SavedPercentage: 50}})
			So(out, ShouldContainSubstring, "Watched up to 50%")
			So(out, ShouldContainSubstring, "Progress saved")
		})
	})
}
