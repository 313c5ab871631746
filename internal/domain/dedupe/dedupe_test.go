package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/iceteam/icelist/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new request key cache", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a key is first seen", func() {
			seen := d.SeenAndRecord(ctx, "req-1")

			Convey("Then it is recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a retry with the same key is reported as seen", func() {
				So(d.SeenAndRecord(ctx, "req-1"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "  req-1 "), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And after Unrecord the key may be used again", func() {
				d.Unrecord(ctx, "req-1")
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "req-1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown key", func() {
			d.SeenAndRecord(ctx, "req-1")
			d.Unrecord(ctx, "req-2")

			Convey("Then the size is unchanged", func() {
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a bounded cache", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, k := range []string{"a", "b", "c"} {
			So(d.SeenAndRecord(ctx, k), ShouldBeFalse)
		}

		Convey("When a fourth key arrives", func() {
			So(d.SeenAndRecord(ctx, "d"), ShouldBeFalse)

			Convey("Then the oldest key is forgotten", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "b"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})
		})

		Convey("When a key is unrecorded and recorded again", func() {
			d.Unrecord(ctx, "a")
			So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "d"), ShouldBeFalse)

			Convey("Then the re-recorded key counts as the newest", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
			})
		})

		Convey("When keys churn through Unrecord many times", func() {
			for i := 0; i < 100; i++ {
				k := fmt.Sprintf("tmp-%d", i)
				d.SeenAndRecord(ctx, k)
				d.Unrecord(ctx, k)
			}

			Convey("Then the live keys survive", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded cache", t, func() {
		for _, size := range []int{0, -1} {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(size))
			for i := 0; i < 500; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("req-%d", i))
			}
			So(d.Size(), ShouldEqual, 500)
			So(d.SeenAndRecord(ctx, "req-0"), ShouldBeTrue)
		}
	})
}

func TestDeduperConcurrency(t *testing.T) {
	Convey("Given many clients retrying the same requests", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh = map[string]int{}
		)
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					k := fmt.Sprintf("req-%d", i)
					if !d.SeenAndRecord(ctx, k) {
						mu.Lock()
						fresh[k]++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is admitted exactly once", func() {
			So(len(fresh), ShouldEqual, 50)
			for _, n := range fresh {
				So(n, ShouldEqual, 1)
			}
			So(d.Size(), ShouldEqual, 50)
		})
	})
}
