package config

import (
	"testing"
	"time"

	"github.com/coursecast/coursecast/filesystem"
	"github.com/coursecast/coursecast/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			So(Setup(), ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
			So(viper.GetInt(key.TrackerInterval), ShouldEqual, 10)
			So(viper.GetInt(key.TrackerCompletionPercentage), ShouldEqual, 80)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("tracker.completion_percentage"), ShouldEqual, "tracker_completion_percentage")
		})
	})
}

func TestSeconds(t *testing.T) {
	Convey("Given the seconds helper", t, func() {
		_ = Setup()

		Convey("It converts the configured value", func() {
			viper.Set(key.APITimeout, 3)
			So(Seconds(key.APITimeout), ShouldEqual, 3*time.Second)
		})

		Convey("It falls back to the default for non-positive values", func() {
			viper.Set(key.TrackerInterval, 0)
			So(Seconds(key.TrackerInterval), ShouldEqual, 10*time.Second)
		})

		Reset(func() {
			viper.Set(key.APITimeout, 15)
			viper.Set(key.TrackerInterval, 10)
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given a registered field", t, func() {
		f := Default[key.APIBaseURL]

		Convey("Its env name carries the application prefix", func() {
			So(f.Env(), ShouldEqual, "COURSECAST_API_BASE_URL")
		})

		Convey("It marshals with its type name", func() {
			b, err := f.MarshalJSON()
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"type":"string"`)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given candidate values", t, func() {
		Convey("Values inside the allowed range pass", func() {
			So(Validate(key.TrackerCompletionPercentage, 90), ShouldBeNil)
			So(Validate(key.APIBaseURL, "https://learn.example.com/api"), ShouldBeNil)
			So(Validate(key.IconsVariant, "nerd"), ShouldBeNil)
		})

		Convey("Out of range thresholds are refused", func() {
			So(Validate(key.TrackerCompletionPercentage, 0), ShouldNotBeNil)
			So(Validate(key.TrackerCompletionPercentage, 101), ShouldNotBeNil)
			So(Validate(key.TrackerInterval, 0), ShouldNotBeNil)
		})

		Convey("Wrong types and unknown keys are refused", func() {
			So(Validate(key.TrackerInterval, "10"), ShouldNotBeNil)
			So(Validate("tracker.speed", 1), ShouldNotBeNil)
		})

		Convey("Keys without a check only need the right type", func() {
			So(Validate(key.PlayerBinary, "/opt/mpv/bin/mpv"), ShouldBeNil)
			So(Validate(key.LogsLevel, "loud"), ShouldNotBeNil)
		})
	})
}
