package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coursecast/coursecast/filesystem"
	"github.com/coursecast/coursecast/key"
	"github.com/coursecast/coursecast/where"
	logrus "github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestSetup(t *testing.T) {
	filesystem.SetMemMapFs()
	t.Setenv(where.EnvConfigPath, "/coursecast-test")

	Convey("Given file logging turned off", t, func() {
		viper.Set(key.LogsWrite, false)
		So(Setup(), ShouldBeNil)

		Convey("Scoped entries go nowhere", func() {
			So(With(Fields{"lesson": 3}).Logger, ShouldEqual, discard)
			So(active(), ShouldEqual, discard)
		})
	})

	Convey("Given file logging turned on", t, func() {
		viper.Set(key.LogsWrite, true)
		viper.Set(key.LogsJson, false)
		viper.Set(key.LogsLevel, "debug")
		Reset(func() {
			viper.Set(key.LogsWrite, false)
			enabled = false
			logrus.SetOutput(os.Stderr)
		})

		So(Setup(), ShouldBeNil)
		path := filepath.Join(where.Logs(), time.Now().Format("2006-01-02")+".log")

		Convey("Emissions land in the dated log file", func() {
			Debugf("resuming lesson %d", 3)
			With(Fields{"lesson": 3}).Warn("save failed")

			data, err := filesystem.API().ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "resuming lesson 3")
			So(string(data), ShouldContainSubstring, "save failed")
			So(string(data), ShouldContainSubstring, "lesson=3")
		})

		Convey("An unknown level falls back to info", func() {
			viper.Set(key.LogsLevel, "loud")
			So(Setup(), ShouldBeNil)
			So(logrus.GetLevel(), ShouldEqual, logrus.InfoLevel)
		})
	})
}
