package open

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValidate(t *testing.T) {
	Convey("Given lesson links", t, func() {
		Convey("Player links are accepted", func() {
			So(Validate("https://player.vimeo.com/video/42"), ShouldBeNil)
			So(Validate("http://localhost:8000/lessons/3"), ShouldBeNil)
		})

		Convey("Other schemes are refused", func() {
			So(Validate("file:///etc/passwd"), ShouldNotBeNil)
			So(Validate("javascript:alert(1)"), ShouldNotBeNil)
		})

		Convey("Relative links are refused", func() {
			So(Validate("/video/42"), ShouldNotBeNil)
		})
	})
}
