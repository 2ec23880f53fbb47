package where

import (
	"path/filepath"
	"testing"

	"github.com/coursecast/coursecast/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Logs()", func() {
			path := Logs()
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
			So(filepath.Dir(path), ShouldEqual, Config())
		})

		Convey("Outbox() lives in the config directory", func() {
			So(filepath.Dir(Outbox()), ShouldEqual, Config())
		})

		Convey("Config() honours the override variable", func(c C) {
			t.Setenv(EnvConfigPath, "/tmp/coursecast-test")
			So(Config(), ShouldEqual, "/tmp/coursecast-test")
		})
	})
}
