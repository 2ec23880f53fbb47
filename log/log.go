// Package log provides a thread-safe, structured logging infrastructure with filesystem-based persistence.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/coursecast/coursecast/filesystem"
	"github.com/coursecast/coursecast/key"
	"github.com/coursecast/coursecast/where"
	"github.com/samber/lo"
	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// enabled indicates the persistent logging state for the active application instance.
var enabled bool

// Fields is a set of structured key/value pairs attached to a log entry.
type Fields = logrus.Fields

// discard swallows everything while logging is disabled.
var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// With returns an entry scoped to the given fields, e.g. the lesson a tracker belongs to.
func With(fields Fields) *logrus.Entry {
	return active().WithFields(fields)
}

// Setup opens the dated log file under where.Logs() and applies the configured format and level.
// When logs.write is off nothing is written.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	filename := fmt.Sprintf("%s.log", time.Now().Format("2006-01-02"))
	path := filepath.Join(dir, filename)

	if exists := lo.Must(filesystem.API().Exists(path)); !exists {
		lo.Must(filesystem.API().Create(path))
	}

	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{PrettyPrint: true})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	lvl := viper.GetString(key.LogsLevel)
	parsed, err := logrus.ParseLevel(lvl)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)

	return nil
}

// active is the logger emissions go to: the configured standard logger, or one that discards.
func active() *logrus.Logger {
	if enabled {
		return logrus.StandardLogger()
	}
	return discard
}

func Error(args ...interface{})                 { active().Error(args...) }
func Errorf(format string, args ...interface{}) { active().Errorf(format, args...) }
func Warn(args ...interface{})                  { active().Warn(args...) }
func Warnf(format string, args ...interface{})  { active().Warnf(format, args...) }
func Info(args ...interface{})                  { active().Info(args...) }
func Infof(format string, args ...interface{})  { active().Infof(format, args...) }
func Debug(args ...interface{})                 { active().Debug(args...) }
func Debugf(format string, args ...interface{}) { active().Debugf(format, args...) }
