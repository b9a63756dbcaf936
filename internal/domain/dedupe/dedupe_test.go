package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given an empty deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		Convey("When an ID is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, "batch-1")

			Convey("Then it is reported as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And the same ID is a duplicate afterwards", func() {
				So(d.SeenAndRecord(ctx, "batch-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a different ID is still new", func() {
				So(d.SeenAndRecord(ctx, "batch-2"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 2)
			})
		})
	})
}

func TestUnrecord(t *testing.T) {
	Convey("Given a deduper with a recorded ID", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()
		So(d.SeenAndRecord(ctx, "batch-1"), ShouldBeFalse)

		Convey("When the ID is unrecorded", func() {
			d.Unrecord(ctx, "batch-1")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "batch-1"), ShouldBeFalse)
			})
		})

		Convey("When an unknown ID is unrecorded", func() {
			d.Unrecord(ctx, "never-seen")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestBoundedEviction(t *testing.T) {
	Convey("Given a deduper bounded to 3 IDs", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 0; i < 3; i++ {
			So(d.SeenAndRecord(ctx, fmt.Sprintf("batch-%d", i)), ShouldBeFalse)
		}

		Convey("When a fourth ID arrives", func() {
			So(d.SeenAndRecord(ctx, "batch-3"), ShouldBeFalse)

			Convey("Then the oldest ID was evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "batch-0"), ShouldBeFalse)
			})

			Convey("And newer IDs are still tracked", func() {
				So(d.SeenAndRecord(ctx, "batch-1"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "batch-3"), ShouldBeTrue)
			})
		})
	})
}

func TestUnbounded(t *testing.T) {
	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		Convey("When many IDs are recorded", func() {
			for i := 0; i < 10_000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("batch-%d", i))
			}

			Convey("Then none are evicted", func() {
				So(d.Size(), ShouldEqual, 10_000)
				So(d.SeenAndRecord(ctx, "batch-0"), ShouldBeTrue)
			})
		})
	})
}
