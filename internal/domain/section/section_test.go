package section_test

import (
	"testing"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/section"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAggregator_Observe(t *testing.T) {
	Convey("Given an aggregator with width 100 and one skill", t, func() {
		agg := section.NewAggregator(100, 1)

		Convey("When objects stay inside one bucket", func() {
			So(agg.Observe(10, []float64{1.0}), ShouldBeEmpty)
			So(agg.Observe(50, []float64{2.5}), ShouldBeEmpty)
			So(agg.Observe(99, []float64{1.5}), ShouldBeEmpty)

			Convey("Then nothing closes and the pending count grows", func() {
				So(agg.Pending(), ShouldEqual, 3)
			})
		})

		Convey("When an object crosses into the next bucket", func() {
			So(agg.Observe(10, []float64{1.0}), ShouldBeEmpty)
			closed := agg.Observe(110, []float64{3.0})

			Convey("Then exactly the previous bucket closes", func() {
				So(closed, ShouldHaveLength, 1)
				So(closed[0].Start, ShouldEqual, 0)
				So(closed[0].Peaks[0], ShouldEqual, 1.0)
				So(closed[0].ObjectCount, ShouldEqual, 1)
			})

			Convey("And the new object counts toward the fresh bucket", func() {
				So(agg.Pending(), ShouldEqual, 1)
			})
		})

		Convey("When a gap skips several buckets", func() {
			So(agg.Observe(10, []float64{2.0}), ShouldBeEmpty)
			closed := agg.Observe(450, []float64{1.0})

			Convey("Then the skipped buckets appear as zero-strain records", func() {
				So(closed, ShouldHaveLength, 4)
				So(closed[0].Start, ShouldEqual, 0)
				So(closed[0].Peaks[0], ShouldEqual, 2.0)
				So(closed[0].ObjectCount, ShouldEqual, 1)
				for i, c := range closed[1:] {
					So(c.Start, ShouldEqual, float64(100*(i+1)))
					So(c.Peaks[0], ShouldEqual, 0)
					So(c.ObjectCount, ShouldEqual, 0)
				}
			})
		})

		Convey("When the first object lands mid-timeline", func() {
			closed := agg.Observe(250, []float64{1.0})

			Convey("Then the first bucket aligns to the width grid", func() {
				So(closed, ShouldBeEmpty)
				final := agg.Finalize()
				So(final, ShouldNotBeNil)
				So(final.Start, ShouldEqual, 200)
			})
		})

		Convey("When the recorded value is the per-bucket maximum", func() {
			So(agg.Observe(10, []float64{1.0}), ShouldBeEmpty)
			So(agg.Observe(20, []float64{5.0}), ShouldBeEmpty)
			So(agg.Observe(30, []float64{2.0}), ShouldBeEmpty)
			final := agg.Finalize()

			Convey("Then the peak wins over later smaller samples", func() {
				So(final.Peaks[0], ShouldEqual, 5.0)
				So(final.ObjectCount, ShouldEqual, 3)
			})
		})
	})
}

func TestAggregator_Partition(t *testing.T) {
	Convey("Given a stream observed across many buckets", t, func() {
		agg := section.NewAggregator(100, 1)
		times := []float64{0, 40, 180, 210, 220, 700, 710}

		var all []section.Closed
		for _, ts := range times {
			all = append(all, agg.Observe(ts, []float64{1})...)
		}
		if final := agg.Finalize(); final != nil {
			all = append(all, *final)
		}

		Convey("Then the closed sections tile time without gaps or overlaps", func() {
			So(all, ShouldHaveLength, 8)
			for i, c := range all {
				So(c.Start, ShouldEqual, float64(100*i))
			}
		})

		Convey("And every object lands in exactly one section", func() {
			total := 0
			for _, c := range all {
				total += c.ObjectCount
			}
			So(total, ShouldEqual, len(times))
		})
	})
}

func TestAggregator_Finalize(t *testing.T) {
	Convey("Given an aggregator with observed objects", t, func() {
		agg := section.NewAggregator(100, 2)
		agg.Observe(10, []float64{1, 2})

		Convey("When finalized twice", func() {
			first := agg.Finalize()
			second := agg.Finalize()

			Convey("Then only the first call closes a section", func() {
				So(first, ShouldNotBeNil)
				So(first.Peaks, ShouldResemble, []float64{1, 2})
				So(second, ShouldBeNil)
			})

			Convey("And the pending count drops to zero", func() {
				So(agg.Pending(), ShouldEqual, 0)
			})
		})

		Convey("When finalized before anything was observed", func() {
			empty := section.NewAggregator(100, 2)

			Convey("Then there is nothing to close", func() {
				So(empty.Finalize(), ShouldBeNil)
			})
		})
	})
}
