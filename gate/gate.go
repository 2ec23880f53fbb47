// Package gate decides whether a viewer may start playing a lesson, before any player exists.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/key"
	"github.com/coursecast/coursecast/log"
	"github.com/coursecast/coursecast/util"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// DefaultCompletionPercentage applies when the backend does not report a threshold.
const DefaultCompletionPercentage = 80

// Reason explains a denial.
type Reason string

const (
	NotEnrolled      Reason = "NotEnrolled"
	Locked           Reason = "Locked"
	NotAuthenticated Reason = "NotAuthenticated"
)

// DeniedError is returned when the viewer may not play the lesson.
type DeniedError struct {
	LessonID int
	Reason   Reason
	Message  string
}

func (e *DeniedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("lesson %d denied (%s): %s", e.LessonID, e.Reason, e.Message)
	}
	return fmt.Sprintf("lesson %d denied (%s)", e.LessonID, e.Reason)
}

// IsDenied reports whether err is a denial and returns it.
func IsDenied(err error) (*DeniedError, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}

// State is the access level granted for a lesson.
type State int

const (
	StateLocked State = iota
	StatePreviewOnly
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StatePreviewOnly:
		return "preview"
	case StateUnlocked:
		return "unlocked"
	default:
		return "locked"
	}
}

// Access is a granted lesson together with the resume point.
type Access struct {
	LessonID    int
	Title       string
	Description string
	State       State

	RequiredCompletionPercentage int
	LastPersistedPercentage      int
	LastWatchedSecond            mo.Option[float64]
	IsCompleted                  bool

	VideoProvider string
	VideoID       string
	EmbedURL      string
}

// Lessons fetches lesson details. *api.Client implements it.
type Lessons interface {
	GetLesson(ctx context.Context, lessonID int, token string) (*api.LessonDetail, error)
}

// Gate evaluates lesson access against the backend.
type Gate struct {
	lessons    Lessons
	completion int
}

// New creates a gate. A non-positive completion falls back to DefaultCompletionPercentage.
func New(lessons Lessons, completion int) *Gate {
	if completion <= 0 || completion > 100 {
		completion = DefaultCompletionPercentage
	}
	return &Gate{lessons: lessons, completion: completion}
}

// FromConfig creates a gate whose fallback threshold is tracker.completion_percentage.
func FromConfig(lessons Lessons) *Gate {
	return New(lessons, viper.GetInt(key.TrackerCompletionPercentage))
}

// Evaluate returns the lesson access or a *DeniedError.
// Transport failures are returned unchanged and never read as a denial.
func (g *Gate) Evaluate(ctx context.Context, lessonID int, token string) (*Access, error) {
	if token == "" {
		return nil, &DeniedError{LessonID: lessonID, Reason: NotAuthenticated, Message: "log in to watch this lesson"}
	}

	detail, err := g.lessons.GetLesson(ctx, lessonID, token)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			switch apiErr.Kind {
			case api.Unauthorized:
				return nil, &DeniedError{LessonID: lessonID, Reason: NotAuthenticated, Message: apiErr.Message}
			case api.Forbidden:
				return nil, &DeniedError{LessonID: lessonID, Reason: NotEnrolled, Message: apiErr.Message}
			}
		}
		return nil, err
	}

	if !detail.CanAccess {
		reason := NotEnrolled
		if detail.IsLocked {
			reason = Locked
		}
		log.Infof("lesson %d denied: %s", lessonID, reason)
		return nil, &DeniedError{LessonID: lessonID, Reason: reason, Message: detail.Message}
	}

	access := &Access{
		LessonID:                     lessonID,
		Title:                        detail.Title,
		Description:                  detail.Description,
		State:                        StateUnlocked,
		RequiredCompletionPercentage: detail.CompletionPercentage,
		LastWatchedSecond:            mo.None[float64](),
		IsCompleted:                  detail.IsCompleted,
		VideoProvider:                detail.VideoProvider,
		VideoID:                      detail.VideoID,
		EmbedURL:                     detail.EmbedURL,
	}

	if access.RequiredCompletionPercentage <= 0 {
		access.RequiredCompletionPercentage = g.completion
	}

	if detail.IsPreview && detail.IsEnrolled != nil && !*detail.IsEnrolled {
		access.State = StatePreviewOnly
	}

	if p := detail.Progress; p != nil {
		access.LastPersistedPercentage = util.Clamp(p.WatchPercentage, 0, 100)
		access.IsCompleted = access.IsCompleted || p.IsCompleted
		if p.LastWatchedSecond > 0 {
			access.LastWatchedSecond = mo.Some(p.LastWatchedSecond)
		}
	}

	log.Debugf("lesson %d granted (%s), resume at %d%%", lessonID, access.State, access.LastPersistedPercentage)
	return access, nil
}
