package gate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coursecast/coursecast/api"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestGate(status int, body string) (*Gate, *atomic.Int32, func()) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	client := api.New(srv.URL, api.WithHTTPClient(srv.Client()), api.WithTimeout(time.Second), api.WithRetries(0))
	return New(client, 0), &calls, srv.Close
}

func TestEvaluateGranted(t *testing.T) {
	Convey("Given an enrolled learner with saved progress", t, func() {
		g, _, stop := newTestGate(http.StatusOK, `{"success":true,"data":{"id":3,"title":"Loops","video_provider":"vimeo","video_id":"42",
			"embed_url":"https://player.vimeo.com/video/42","can_access":true,"is_enrolled":true,
			"progress":{"watch_percentage":30,"last_watched_second":95.5,"is_completed":false}}}`)
		defer stop()

		access, err := g.Evaluate(context.Background(), 3, "tok")

		Convey("Access is unlocked with the resume point", func() {
			So(err, ShouldBeNil)
			So(access.State, ShouldEqual, StateUnlocked)
			So(access.LastPersistedPercentage, ShouldEqual, 30)
			So(access.LastWatchedSecond.MustGet(), ShouldEqual, 95.5)
			So(access.VideoID, ShouldEqual, "42")
		})

		Convey("The threshold falls back to 80", func() {
			So(access.RequiredCompletionPercentage, ShouldEqual, DefaultCompletionPercentage)
		})
	})

	Convey("Given a preview lesson outside the enrollment", t, func() {
		g, _, stop := newTestGate(http.StatusOK, `{"success":true,"data":{"id":1,"is_preview":true,"can_access":true,
			"is_enrolled":false,"completion_percentage":90}}`)
		defer stop()

		access, err := g.Evaluate(context.Background(), 1, "tok")
		So(err, ShouldBeNil)
		So(access.State, ShouldEqual, StatePreviewOnly)
		So(access.RequiredCompletionPercentage, ShouldEqual, 90)
		So(access.LastWatchedSecond.IsAbsent(), ShouldBeTrue)
	})
}

func TestEvaluateDenied(t *testing.T) {
	Convey("Given no token", t, func() {
		g, calls, stop := newTestGate(http.StatusOK, `{}`)
		defer stop()

		_, err := g.Evaluate(context.Background(), 1, "")
		denied, ok := IsDenied(err)
		So(ok, ShouldBeTrue)
		So(denied.Reason, ShouldEqual, NotAuthenticated)
		So(calls.Load(), ShouldEqual, 0)
	})

	Convey("Given a locked lesson", t, func() {
		g, _, stop := newTestGate(http.StatusOK, `{"success":true,"message":"Complete the previous lesson first",
			"data":{"id":2,"can_access":false,"is_locked":true}}`)
		defer stop()

		_, err := g.Evaluate(context.Background(), 2, "tok")
		denied, ok := IsDenied(err)
		So(ok, ShouldBeTrue)
		So(denied.Reason, ShouldEqual, Locked)
		So(denied.Message, ShouldEqual, "Complete the previous lesson first")
	})

	Convey("Given a lesson outside the enrollment", t, func() {
		g, _, stop := newTestGate(http.StatusOK, `{"success":true,"message":"Enroll to watch","data":{"id":2,"can_access":false}}`)
		defer stop()

		_, err := g.Evaluate(context.Background(), 2, "tok")
		denied, ok := IsDenied(err)
		So(ok, ShouldBeTrue)
		So(denied.Reason, ShouldEqual, NotEnrolled)
	})

	Convey("Given status based denials", t, func() {
		Convey("401 means not authenticated", func() {
			g, _, stop := newTestGate(http.StatusUnauthorized, `{"success":false,"message":"Unauthenticated."}`)
			defer stop()
			_, err := g.Evaluate(context.Background(), 2, "stale")
			denied, ok := IsDenied(err)
			So(ok, ShouldBeTrue)
			So(denied.Reason, ShouldEqual, NotAuthenticated)
		})

		Convey("403 means not enrolled", func() {
			g, _, stop := newTestGate(http.StatusForbidden, `{"success":false,"message":"You are not enrolled"}`)
			defer stop()
			_, err := g.Evaluate(context.Background(), 2, "tok")
			denied, ok := IsDenied(err)
			So(ok, ShouldBeTrue)
			So(denied.Reason, ShouldEqual, NotEnrolled)
			So(denied.Message, ShouldEqual, "You are not enrolled")
		})
	})
}

func TestEvaluateTransportFailure(t *testing.T) {
	Convey("Given a failing backend", t, func() {
		Convey("A server error is surfaced, not read as locked", func() {
			g, _, stop := newTestGate(http.StatusInternalServerError, `oops`)
			defer stop()
			_, err := g.Evaluate(context.Background(), 2, "tok")
			So(err, ShouldNotBeNil)
			_, denied := IsDenied(err)
			So(denied, ShouldBeFalse)
			So(api.IsKind(err, api.ServerError), ShouldBeTrue)
		})

		Convey("A missing lesson is surfaced as not found", func() {
			g, _, stop := newTestGate(http.StatusNotFound, `{"success":false,"message":"Lesson not found"}`)
			defer stop()
			_, err := g.Evaluate(context.Background(), 99, "tok")
			So(api.IsKind(err, api.NotFound), ShouldBeTrue)
		})
	})
}
