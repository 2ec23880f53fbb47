// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"fmt"
	"strings"

	"github.com/coursecast/coursecast/color"
	"github.com/coursecast/coursecast/gate"
	"github.com/coursecast/coursecast/icon"
	"github.com/coursecast/coursecast/session"
	"github.com/coursecast/coursecast/style"
	"github.com/coursecast/coursecast/util"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case lessonsState:
		output = listExtraPaddingStyle.Render(b.lessonsC.View())
	case loadingState:
		output = b.viewLoading()
	case playingState:
		output = b.viewPlaying()
	case doneState:
		output = b.viewDone()
	case errorState:
		output = b.viewError()
	default:
		output = ""
	}

	return b.notifier.View(output)
}

func (b *statefulBubble) viewLoading() string {
	return b.renderLines(
		true,
		[]string{
			style.Title("Loading"),
			"",
			b.spinnerC.View() + " " + b.status,
		},
	)
}

// completionHint tells the viewer how much to watch to complete the lesson.
func completionHint(access *gate.Access) string {
	if access.IsCompleted {
		return icon.Get(icon.Completed) + " You already completed this lesson."
	}
	return fmt.Sprintf("Watch %d%% to complete this lesson and unlock the next one.", access.RequiredCompletionPercentage)
}

func (b *statefulBubble) viewPlaying() string {
	if b.access == nil {
		return b.viewLoading()
	}

	p := b.progress
	saved := fmt.Sprintf("%s saved %d%%", icon.Get(icon.Saved), p.SavedPercentage)
	if p.InFlight {
		saved += " " + b.spinnerC.View()
	}
	if p.Failures > 0 {
		saved += " " + style.Fg(color.Red)(fmt.Sprintf("(%s failed)", util.Quantify(p.Failures, "save", "saves")))
	}

	status := fmt.Sprintf("%s at %s", p.Phase, util.FormatSeconds(p.Position))
	if b.status == "Saving progress" {
		status = b.spinnerC.View() + " " + b.status
	}

	lines := []string{
		style.Title("Now Playing"),
		"",
		style.Truncate(b.width)(style.Fg(color.Purple)(b.access.Title)),
		"",
		b.progressC.View(),
		"",
		saved,
		status,
		"",
		style.Faint(wrap.String(completionHint(b.access), b.width-4)),
	}

	if b.access.State == gate.StatePreviewOnly {
		lines = append(lines, style.Faint(icon.Get(icon.Preview)+" Free preview. Enroll to keep your progress across the course."))
	}

	return b.renderLines(true, lines)
}

func (b *statefulBubble) viewDone() string {
	lines := []string{style.Title("Session Finished"), ""}

	title := ""
	if b.access != nil {
		title = b.access.Title
	}
	lines = append(lines, style.Fg(color.Purple)(title), "")

	if b.result != nil {
		lines = append(lines, resultLines(b.result)...)
	}
	if b.unlocked {
		lines = append(lines, "", style.Fg(color.Green)(icon.Get(icon.Success)+" Next lesson unlocked"))
	}

	return b.renderLines(true, lines)
}

// resultLines summarizes how a session ended.
func resultLines(r *session.Result) []string {
	final := r.Final
	var lines []string

	switch {
	case r.Completed():
		lines = append(lines, icon.Get(icon.Completed)+" Lesson completed")
	default:
		lines = append(lines, fmt.Sprintf("Watched up to %d%%", final.HighWaterPercentage))
	}

	switch {
	case r.Queued:
		lines = append(lines, style.Fg(color.Yellow)(icon.Get(icon.Warn)+" Progress could not be saved. It will be sent on the next start."))
	case final.Unsaved() && !r.Flushed:
		lines = append(lines, style.Fg(color.Red)(icon.Get(icon.Fail)+fmt.Sprintf(" Progress above %d%% was not saved.", final.SavedPercentage)))
	default:
		lines = append(lines, style.Faint(icon.Get(icon.Saved)+" Progress saved"))
	}

	return lines
}

// SummaryLines is the plain summary printed after the interface exits.
func SummaryLines(r *session.Result) string {
	return strings.Join(resultLines(r), "\n")
}

func (b *statefulBubble) viewError() string {
	message := b.lastError.Error()
	title := "Error"
	if denied, ok := gate.IsDenied(b.lastError); ok {
		message = session.Describe(denied)
		title = "Access Denied"
	}

	errorStyle := lipgloss.NewStyle().Foreground(style.ErrorColor).Bold(true)
	return b.renderLines(
		true,
		[]string{
			style.ErrorTitle(title),
			"",
			icon.Get(icon.Fail) + " " + wrap.String(errorStyle.Render(message), b.width-4),
		},
	)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if pad := b.height - h - 3; pad > 0 {
			l += strings.Repeat("\n", pad)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
