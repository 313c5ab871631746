package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("Then Get returns a usable logger", func() {
			l := Get()
			So(l, ShouldNotBeNil)
			So(func() { l.Info(context.Background(), "hello", String("k", "v")) }, ShouldNotPanic)
		})

		Convey("And Named returns a child logger", func() {
			So(Named("mutator"), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		So(SetLevelString("info"), ShouldBeNil)
		var buf bytes.Buffer
		l := New(&buf).Named("rankindex").With(String("op", "abc"))

		Convey("When logging at info", func() {
			l.Info(context.Background(), "level resolved", Int("rank", 3), Error(errors.New("boom")))

			Convey("Then the record carries component, fields and source", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "level resolved")
				So(out, ShouldContainSubstring, "component=rankindex")
				So(out, ShouldContainSubstring, "op=abc")
				So(out, ShouldContainSubstring, "rank=3")
				So(out, ShouldContainSubstring, "error=boom")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When logging below the level", func() {
			l.Debug(context.Background(), "hidden")
			So(buf.Len(), ShouldEqual, 0)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		for _, lvl := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("loud"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)
	})
}
