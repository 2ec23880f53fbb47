package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/samber/lo"
)

// Lesson is one entry of a sub-course lesson listing.
type Lesson struct {
	ID               int    `json:"id" jsonschema:"description=Lesson identifier"`
	SubCourseID      int    `json:"sub_course_id"`
	Title            string `json:"title"`
	ShortDescription string `json:"short_description,omitempty"`
	Order            int    `json:"order"`
	DurationMinutes  int    `json:"duration_minutes,omitempty"`
	VideoProvider    string `json:"video_provider"`
	VideoID          string `json:"video_id"`
	IsPreview        bool   `json:"is_preview"`
	IsActive         bool   `json:"is_active"`
	IsCompleted      bool   `json:"is_completed"`
	IsLocked         bool   `json:"is_locked"`
}

// LessonProgress is the backend's record of the caller's last saved progress.
type LessonProgress struct {
	WatchPercentage   int     `json:"watch_percentage"`
	LastWatchedSecond float64 `json:"last_watched_second"`
	IsCompleted       bool    `json:"is_completed"`
}

// LessonDetail is the payload of GET /lessons/{id}: the lesson, its video and the caller's access to it.
type LessonDetail struct {
	Lesson
	Description          string          `json:"description,omitempty"`
	EmbedURL             string          `json:"embed_url"`
	CanAccess            bool            `json:"can_access"`
	CompletionPercentage int             `json:"completion_percentage,omitempty"`
	FormattedDuration    string          `json:"formatted_duration,omitempty"`
	IsEnrolled           *bool           `json:"is_enrolled,omitempty"`
	Progress             *LessonProgress `json:"progress,omitempty"`

	// Message is the envelope message; the backend uses it to explain a denial.
	Message string `json:"-"`
}

// Progress is the body of a progress update.
type Progress struct {
	WatchedSeconds float64 `json:"watched_seconds"`
	Percentage     int     `json:"percentage"`
}

// ProgressResult is the backend's answer to a progress update.
type ProgressResult struct {
	IsCompleted     bool `json:"is_completed"`
	WatchPercentage int  `json:"watch_percentage,omitempty"`
}

// GetLesson fetches a lesson together with the caller's access and progress.
func (c *Client) GetLesson(ctx context.Context, lessonID int, token string) (*LessonDetail, error) {
	var detail LessonDetail
	msg, err := c.get(ctx, fmt.Sprintf("/lessons/%d", lessonID), token, &detail)
	if err != nil {
		return nil, fmt.Errorf("get lesson %d: %w", lessonID, err)
	}
	detail.Message = msg
	return &detail, nil
}

// SendProgress stores the caller's progress for a lesson. It makes exactly one attempt.
func (c *Client) SendProgress(ctx context.Context, lessonID int, p Progress, token string) (*ProgressResult, error) {
	var result ProgressResult
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/lessons/%d/progress", lessonID), token, p, &result)
	if err != nil {
		return nil, fmt.Errorf("send progress for lesson %d: %w", lessonID, err)
	}
	return &result, nil
}

// GetLessons lists the lessons of a sub-course, ordered by the backend.
func (c *Client) GetLessons(ctx context.Context, subCourseID int, token string) ([]Lesson, error) {
	var payload struct {
		Lessons []Lesson `json:"lessons"`
	}
	if _, err := c.get(ctx, fmt.Sprintf("/sub-courses/%d/lessons", subCourseID), token, &payload); err != nil {
		return nil, fmt.Errorf("get lessons of sub-course %d: %w", subCourseID, err)
	}
	return payload.Lessons, nil
}

// NextLesson returns the first lesson that is open and not completed yet, the one to continue with.
func NextLesson(lessons []Lesson) (Lesson, bool) {
	return lo.Find(lessons, func(l Lesson) bool {
		return !l.IsCompleted && !l.IsLocked
	})
}
