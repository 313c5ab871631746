package tabular

import (
	"bytes"
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/iceteam/icelist/pkg/logger"
)

func TestInstrumented(t *testing.T) {
	Convey("Given an instrumented memory store", t, func() {
		ctx := context.Background()
		var buf bytes.Buffer
		mem := NewMemStore(WithRows(Main, [][]string{{"Level"}, {"Alpha"}}))
		store := Instrument(mem, logger.New(&buf))

		Convey("Calls pass through unchanged", func() {
			So(store.InsertRow(ctx, Main, 2, []string{"Beta"}), ShouldBeNil)
			col, err := store.Column(ctx, Main, 1)
			So(err, ShouldBeNil)
			So(col, ShouldResemble, []string{"Level", "Beta", "Alpha"})
			So(mem.Writes(), ShouldEqual, 1)
		})

		Convey("Failures are returned and logged", func() {
			boom := errors.New("backend down")
			mem.FailNext("Rows", Main, boom)
			_, err := store.Rows(ctx, Main)
			So(errors.Is(err, boom), ShouldBeTrue)
			So(buf.String(), ShouldContainSubstring, "store call failed")
			So(buf.String(), ShouldContainSubstring, "component=tabular")
		})

		Convey("A nil logger is tolerated", func() {
			So(func() { _, _ = Instrument(mem, nil).Rows(ctx, Main) }, ShouldNotPanic)
		})
	})
}
