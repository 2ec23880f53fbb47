package util

import (
	"testing"

	"github.com/coursecast/coursecast/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "lesson", "lessons"), ShouldEqual, "1 lesson")
		So(Quantify(2, "lesson", "lessons"), ShouldEqual, "2 lessons")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("hello"), ShouldEqual, "Hello")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(120, 0, 100), ShouldEqual, 100)
		So(Clamp(-3, 0, 100), ShouldEqual, 0)
		So(Clamp(42, 0, 100), ShouldEqual, 42)
	})
}

func TestFormatSeconds(t *testing.T) {
	Convey("FormatSeconds", t, func() {
		So(FormatSeconds(95.5), ShouldEqual, "1:35")
		So(FormatSeconds(3725), ShouldEqual, "1:02:05")
		So(FormatSeconds(-1), ShouldEqual, "0:00")
	})
}

func TestDelete(t *testing.T) {
	Convey("Given a directory with a file", t, func() {
		fs := filesystem.API()
		So(fs.MkdirAll("/tmp/coursecast/sockets", 0755), ShouldBeNil)
		So(fs.WriteFile("/tmp/coursecast/sockets/a.sock", []byte("x"), 0644), ShouldBeNil)

		Convey("Delete removes it recursively", func() {
			So(Delete("/tmp/coursecast"), ShouldBeNil)
			exists, _ := fs.Exists("/tmp/coursecast")
			So(exists, ShouldBeFalse)
		})
	})
}
