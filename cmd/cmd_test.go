package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/gate"
	"github.com/coursecast/coursecast/internal/outbox"
	"github.com/coursecast/coursecast/key"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseValue(t *testing.T) {
	Convey("Given raw config values", t, func() {
		Convey("Integers are parsed for integer keys", func() {
			v, err := parseValue(key.TrackerInterval, []string{"30"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 30)

			_, err = parseValue(key.TrackerInterval, []string{"soon"})
			So(err, ShouldNotBeNil)
		})

		Convey("Booleans are parsed for boolean keys", func() {
			v, err := parseValue(key.PlayerResume, []string{"false"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, false)
		})

		Convey("Strings are kept as they are", func() {
			v, err := parseValue(key.APIBaseURL, []string{"https://learn.example.com/api"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "https://learn.example.com/api")
		})

		Convey("Unknown keys suggest the closest one", func() {
			_, err := parseValue("tracker.intervl", []string{"5"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, key.TrackerInterval)
		})

		Convey("A missing value is an error", func() {
			_, err := parseValue(key.APIRetries, nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFilterLessons(t *testing.T) {
	Convey("Given a lesson listing", t, func() {
		lessons := []api.Lesson{
			{ID: 1, Order: 1, Title: "Variables and Types"},
			{ID: 2, Order: 2, Title: "Closures"},
			{ID: 3, Order: 3, Title: "Goroutines and Channels"},
		}

		Convey("An empty query keeps everything", func() {
			So(filterLessons(lessons, ""), ShouldHaveLength, 3)
		})

		Convey("Titles are matched fuzzily and case-insensitively", func() {
			found := filterLessons(lessons, "gorchan")
			So(found, ShouldHaveLength, 1)
			So(found[0].ID, ShouldEqual, 3)
		})

		Convey("The listing order is kept", func() {
			found := filterLessons(lessons, "s")
			So(found[0].ID, ShouldEqual, 1)
		})
	})
}

func TestPrintLessons(t *testing.T) {
	Convey("Given a listing with completed and locked lessons", t, func() {
		lessons := []api.Lesson{
			{ID: 1, Order: 1, Title: "Intro", IsCompleted: true},
			{ID: 2, Order: 2, Title: "Closures"},
			{ID: 3, Order: 3, Title: "Channels", IsLocked: true},
		}

		var out bytes.Buffer
		printLessons(&out, lessons)

		Convey("Only the next open lesson is marked", func() {
			So(bytes.Count(out.Bytes(), []byte("continue here")), ShouldEqual, 1)
			lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
			So(lines, ShouldHaveLength, 3)
			So(string(lines[1]), ShouldContainSubstring, "continue here")
		})
	})
}

func TestPrintAccess(t *testing.T) {
	Convey("Given a lesson in progress", t, func() {
		access := &gate.Access{
			Title:                        "Closures",
			State:                        gate.StateUnlocked,
			RequiredCompletionPercentage: 80,
			LastPersistedPercentage:      42,
			LastWatchedSecond:            mo.Some(125.0),
		}

		var out bytes.Buffer
		printAccess(&out, access, 80)

		So(out.String(), ShouldContainSubstring, "2:05")
		So(out.String(), ShouldContainSubstring, "Watch 80% to complete")
	})

	Convey("Given a completed lesson", t, func() {
		access := &gate.Access{Title: "Intro", State: gate.StateUnlocked, IsCompleted: true, LastWatchedSecond: mo.Some(10.0)}

		var out bytes.Buffer
		printAccess(&out, access, 80)

		So(out.String(), ShouldContainSubstring, "completed")
		So(out.String(), ShouldNotContainSubstring, "resumes at")
	})
}

func TestDescribeErr(t *testing.T) {
	Convey("Given backend failures", t, func() {
		So(describeErr(&api.Error{Kind: api.Unauthorized, Status: 401}), ShouldContainSubstring, "login")
		So(describeErr(errors.New("boom")), ShouldEqual, "boom")
	})
}

func TestEnvNames(t *testing.T) {
	Convey("Given the exposed configuration", t, func() {
		names := envNames()

		Convey("Every name carries the application prefix", func() {
			for _, n := range names {
				So(n, ShouldStartWith, "COURSECAST_")
			}
		})

		Convey("The token and config path overrides are listed", func() {
			So(names, ShouldContain, "COURSECAST_TOKEN")
			So(names, ShouldContain, "COURSECAST_CONFIG_PATH")
			So(names, ShouldContain, "COURSECAST_TRACKER_INTERVAL")
		})
	})

	Convey("Given a token", t, func() {
		So(maskSecret("abcdef123456"), ShouldEqual, "********3456")
		So(maskSecret("abc"), ShouldEqual, "***")
	})
}

func TestPendingTable(t *testing.T) {
	Convey("Given queued progress", t, func() {
		queued := time.Date(2026, 3, 4, 18, 5, 0, 0, time.UTC)
		out := pendingTable([]*outbox.Entry{
			{LessonID: 12, Percentage: 45, WatchedSeconds: 95, QueuedAt: queued},
			{LessonID: 7, Percentage: 100, WatchedSeconds: 600, QueuedAt: queued},
		}).String()

		Convey("Every entry gets a row under the headers", func() {
			lines := strings.Split(out, "\n")
			So(out, ShouldContainSubstring, "LESSON")
			So(out, ShouldContainSubstring, "QUEUED")
			So(out, ShouldContainSubstring, "45%")
			So(out, ShouldContainSubstring, "100%")
			So(out, ShouldContainSubstring, "2026-03-04 18:05")
			So(len(lines), ShouldBeGreaterThanOrEqualTo, 5)
		})
	})
}

func TestCatalogOutput(t *testing.T) {
	Convey("Given catalog courses", t, func() {
		var buf bytes.Buffer
		printMainCourses(&buf, []api.MainCourse{
			{Title: "Go", Slug: "go", SubCoursesCount: 2},
			{Title: "SQL", Slug: "sql", SubCoursesCount: 1},
		})

		Convey("Each course is one line with its slug", func() {
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			So(lines, ShouldHaveLength, 2)
			So(lines[0], ShouldContainSubstring, "(go)")
			So(lines[1], ShouldContainSubstring, "sub-course")
		})
	})

	Convey("Given sub-courses with and without an enrollment", t, func() {
		enrolled := true
		out := subCoursesTable([]api.SubCourse{
			{ID: 4, Title: "Concurrency", Level: "advanced", DurationHours: 6.5,
				Enrollment: &api.SubCourseEnrollment{ProgressPercentage: 25}},
			{ID: 5, Title: "Generics", Level: "intermediate", IsEnrolled: &enrolled},
			{ID: 6, Title: "Testing", Level: "beginner"},
		}).String()

		Convey("The enrollment column shows progress where it is known", func() {
			So(out, ShouldContainSubstring, "Concurrency")
			So(out, ShouldContainSubstring, "6.5")
			So(out, ShouldContainSubstring, "25%")
			So(out, ShouldContainSubstring, "yes")
			So(out, ShouldContainSubstring, "Testing")
		})
	})

	Convey("Given enrollments", t, func() {
		out := enrollmentsTable([]api.Enrollment{
			{
				Status: api.EnrollmentCompleted, ProgressPercentage: 100,
				SubCourse:          api.SubCourse{ID: 4, Title: "Concurrency"},
				MainCourse:         api.CourseRef{Title: "Go"},
				LastAccessedLesson: &api.CourseRef{ID: 40, Title: "Select"},
				Certificate:        &api.Certificate{Code: "GO-123"},
			},
			{Status: api.EnrollmentActive, ProgressPercentage: 10, SubCourse: api.SubCourse{ID: 5, Title: "Generics"}},
		}).String()

		Convey("Progress, last lesson and certificate are shown", func() {
			So(out, ShouldContainSubstring, "100% completed")
			So(out, ShouldContainSubstring, "40 Select")
			So(out, ShouldContainSubstring, "GO-123")
			So(out, ShouldContainSubstring, "10% active")
		})
	})
}
