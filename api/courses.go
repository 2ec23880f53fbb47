package api

import (
	"context"
	"fmt"
	"net/url"
)

// CourseRef is the short form the backend embeds when pointing at a course or lesson.
type CourseRef struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// MainCourse is one entry of the course catalog.
type MainCourse struct {
	ID              int     `json:"id"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	Description     string  `json:"description"`
	Thumbnail       *string `json:"thumbnail"`
	SubCoursesCount int     `json:"sub_courses_count"`
}

// MainCourseDetail is a catalog course with the sub-courses it groups.
type MainCourseDetail struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Thumbnail   *string     `json:"thumbnail"`
	Categories  []string    `json:"categories,omitempty"`
	SubCourses  []SubCourse `json:"sub_courses"`
}

// SubCourseEnrollment is the caller's enrollment as embedded in a sub-course.
type SubCourseEnrollment struct {
	Status             string `json:"status"`
	ProgressPercentage int    `json:"progress_percentage"`
	EnrolledAt         string `json:"enrolled_at"`
}

// SubCourse is the purchasable unit that holds lessons.
type SubCourse struct {
	ID               int                  `json:"id"`
	Title            string               `json:"title"`
	Slug             string               `json:"slug"`
	Description      string               `json:"description"`
	ShortDescription string               `json:"short_description,omitempty"`
	Price            float64              `json:"price"`
	Level            string               `json:"level"`
	DurationHours    float64              `json:"duration_hours"`
	Thumbnail        *string              `json:"thumbnail"`
	IsActive         bool                 `json:"is_active"`
	MainCourseID     int                  `json:"main_course_id"`
	LessonsCount     int                  `json:"lessons_count,omitempty"`
	StudentsCount    int                  `json:"students_count,omitempty"`
	AverageRating    float64              `json:"average_rating,omitempty"`
	IsBought         *bool                `json:"is_bought,omitempty"`
	IsEnrolled       *bool                `json:"is_enrolled,omitempty"`
	MainCourse       *CourseRef           `json:"main_course,omitempty"`
	Enrollment       *SubCourseEnrollment `json:"enrollment,omitempty"`
}

// Certificate is issued once an enrollment is completed.
type Certificate struct {
	Code            string `json:"certificate_code"`
	IssuedAt        string `json:"issued_at"`
	VerificationURL string `json:"verification_url"`
}

// Enrollment is one sub-course the caller has access to, with overall progress.
type Enrollment struct {
	ID                 int          `json:"id"`
	Status             string       `json:"status"`
	ProgressPercentage int          `json:"progress_percentage"`
	EnrolledAt         string       `json:"enrolled_at"`
	CompletedAt        *string      `json:"completed_at"`
	SubCourse          SubCourse    `json:"sub_course"`
	MainCourse         CourseRef    `json:"main_course"`
	LastAccessedLesson *CourseRef   `json:"last_accessed_lesson"`
	Certificate        *Certificate `json:"certificate"`
}

// Enrollment statuses accepted by GetEnrollments.
const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
)

// GetMainCourses lists the catalog. A non-empty search narrows it on the backend.
func (c *Client) GetMainCourses(ctx context.Context, search string) ([]MainCourse, error) {
	endpoint := "/main-courses"
	if search != "" {
		endpoint += "?" + url.Values{"search": {search}}.Encode()
	}

	var courses []MainCourse
	if _, err := c.get(ctx, endpoint, "", &courses); err != nil {
		return nil, fmt.Errorf("get main courses: %w", err)
	}
	return courses, nil
}

// GetMainCourse fetches a catalog course by slug.
func (c *Client) GetMainCourse(ctx context.Context, slug string) (*MainCourseDetail, error) {
	var detail MainCourseDetail
	if _, err := c.get(ctx, "/main-courses/"+url.PathEscape(slug), "", &detail); err != nil {
		return nil, fmt.Errorf("get main course %q: %w", slug, err)
	}
	return &detail, nil
}

// GetSubCourse fetches a sub-course. With a token the enrollment fields are filled in.
func (c *Client) GetSubCourse(ctx context.Context, subCourseID int, token string) (*SubCourse, error) {
	var sub SubCourse
	if _, err := c.get(ctx, fmt.Sprintf("/sub-courses/%d", subCourseID), token, &sub); err != nil {
		return nil, fmt.Errorf("get sub-course %d: %w", subCourseID, err)
	}
	return &sub, nil
}

// GetEnrollments lists the caller's courses, optionally only those with the given status.
func (c *Client) GetEnrollments(ctx context.Context, token, status string) ([]Enrollment, error) {
	endpoint := "/enrollments"
	if status != "" {
		endpoint += "?" + url.Values{"status": {status}}.Encode()
	}

	var enrollments []Enrollment
	if _, err := c.get(ctx, endpoint, token, &enrollments); err != nil {
		return nil, fmt.Errorf("get enrollments: %w", err)
	}
	return enrollments, nil
}
