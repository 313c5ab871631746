package waiting

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/domain/types"
	"github.com/iceteam/icelist/internal/domain/validate"
	"github.com/iceteam/icelist/internal/listgen"
)

func intp(v int) *int { return &v }

func fixedClock() time.Time { return time.Date(2024, time.March, 9, 18, 0, 0, 0, time.UTC) }

func TestStage(t *testing.T) {
	Convey("Given an empty waiting list", t, func() {
		ctx := context.Background()
		store := listgen.New("alice").Store()
		m := New(store, WithClock(fixedClock))

		Convey("Stage appends one dated row", func() {
			e, err := m.Stage(ctx, types.WaitingEntry{
				Level:            "Frost Bite",
				Submitter:        "alice",
				IsExtreme:        true,
				PlacementOpinion: "top 10",
				Enjoyment:        intp(80),
				Link:             "https://clip",
			})
			So(err, ShouldBeNil)
			So(e.SubmittedDate, ShouldEqual, "09/03/2024")

			rows := store.Snapshot(tabular.Waiting)
			So(rows, ShouldHaveLength, 2)
			So(rows[1], ShouldResemble, []string{"Frost Bite", "alice", "XD", "top 10", "", "80", "", "https://clip", "09/03/2024"})
		})

		Convey("Duplicate submissions coexist and the first one wins", func() {
			_, err := m.Stage(ctx, types.WaitingEntry{Level: "Dup", Submitter: "alice"})
			So(err, ShouldBeNil)
			_, err = m.Stage(ctx, types.WaitingEntry{Level: "dup ", Submitter: "bob"})
			So(err, ShouldBeNil)

			list, err := m.List(ctx)
			So(err, ShouldBeNil)
			So(list, ShouldHaveLength, 2)

			found, err := m.Find(ctx, "DUP")
			So(err, ShouldBeNil)
			So(found.Submitter, ShouldEqual, "alice")
			So(found.Row, ShouldEqual, 2)
		})

		Convey("Out of range scores are rejected before any write", func() {
			_, err := m.Stage(ctx, types.WaitingEntry{Level: "X", Submitter: "alice", Rating: intp(101)})
			So(errors.Is(err, validate.ErrValidation), ShouldBeTrue)
			So(store.Writes(), ShouldEqual, 0)
		})
	})
}

func TestConsume(t *testing.T) {
	Convey("Given a staged level", t, func() {
		ctx := context.Background()
		store := listgen.New("alice").
			Waiting(types.WaitingEntry{Level: "Frost Bite", Submitter: "bob", IsExtreme: true, Rating: intp(55), SubmittedDate: "01/02/2024"}).
			Store()
		m := New(store)

		Convey("Consuming twice yields the entry at most once", func() {
			first, err := m.Consume(ctx, "frost bite")
			So(err, ShouldBeNil)
			So(first, ShouldNotBeNil)
			So(first.Submitter, ShouldEqual, "bob")
			So(first.IsExtreme, ShouldBeTrue)
			So(*first.Rating, ShouldEqual, 55)
			So(first.Enjoyment, ShouldBeNil)

			second, err := m.Consume(ctx, "frost bite")
			So(err, ShouldBeNil)
			So(second, ShouldBeNil)
		})

		Convey("A failed delete surfaces the adapter error", func() {
			store.FailNext("DeleteRow", tabular.Waiting, errors.New("quota"))
			_, err := m.Consume(ctx, "Frost Bite")
			So(errors.Is(err, tabular.ErrAdapter), ShouldBeTrue)

			still, err := m.Find(ctx, "Frost Bite")
			So(err, ShouldBeNil)
			So(still, ShouldNotBeNil)
		})

		Convey("Unknown levels find nothing", func() {
			e, err := m.Find(ctx, "Nope")
			So(err, ShouldBeNil)
			So(e, ShouldBeNil)
		})
	})
}
