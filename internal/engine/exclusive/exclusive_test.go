package exclusive_test

import (
	"context"
	"testing"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/mode"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/engine/exclusive"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/engine/gradual"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/mapgen"
	. "github.com/smartystreets/goconvey/convey"
)

func newTaiko(t *testing.T, count int) *exclusive.Calculator {
	t.Helper()
	objs, err := mapgen.Generate(mapgen.Config{Mode: "taiko", Count: count, BPM: 220, Seed: 11})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return exclusive.Wrap(gradual.New(mode.Taiko(), gradual.NewSliceSource(objs)))
}

func TestCalculator_AdvanceTo(t *testing.T) {
	Convey("Given an exclusive calculator over 200 objects", t, func() {
		calc := newTaiko(t, 200)
		ctx := context.Background()

		Convey("When advanced to 50 objects", func() {
			snap, err := calc.AdvanceTo(ctx, 50)
			So(err, ShouldBeNil)

			Convey("Then exactly 50 were consumed", func() {
				So(calc.Consumed(), ShouldEqual, 50)
				So(snap.Objects, ShouldBeLessThanOrEqualTo, 50)
			})

			Convey("And a lower target re-drives nothing", func() {
				again, err := calc.AdvanceTo(ctx, 30)
				So(err, ShouldBeNil)
				So(calc.Consumed(), ShouldEqual, 50)
				So(again, ShouldResemble, snap)
			})
		})

		Convey("When advanced past the stream length", func() {
			_, err := calc.AdvanceTo(ctx, 10_000)
			So(err, ShouldBeNil)

			Convey("Then consumption stops at the stream length", func() {
				So(calc.Consumed(), ShouldEqual, 200)
			})
		})

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := calc.AdvanceTo(cancelled, 50)

			Convey("Then no object is folded", func() {
				So(err, ShouldWrap, context.Canceled)
				So(calc.Consumed(), ShouldEqual, 0)
			})
		})
	})
}

func TestCalculator_MatchesShared(t *testing.T) {
	Convey("Given the same stream behind both wrappers", t, func() {
		objs, err := mapgen.Generate(mapgen.Config{Mode: "standard", Count: 300, BPM: 190, Seed: 5})
		So(err, ShouldBeNil)
		p := mode.Standard()

		calc := exclusive.Wrap(gradual.New(p, gradual.NewSliceSource(objs)))
		_, err = calc.Drain(context.Background())
		So(err, ShouldBeNil)
		got, err := calc.Finalize()
		So(err, ShouldBeNil)

		want, err := gradual.Compute(p, objs)
		So(err, ShouldBeNil)

		Convey("Then the wrapper changes nothing about the result", func() {
			So(got, ShouldResemble, want)
			So(calc.Exhausted(), ShouldBeTrue)
			So(calc.HasSnapshot(), ShouldBeTrue)
			So(calc.Latest(), ShouldResemble, want)
		})
	})
}

func TestCalculator_FinalizeIdempotent(t *testing.T) {
	Convey("Given a drained exclusive calculator", t, func() {
		calc := newTaiko(t, 100)
		_, err := calc.Drain(context.Background())
		So(err, ShouldBeNil)

		Convey("When finalized twice", func() {
			first, err := calc.Finalize()
			So(err, ShouldBeNil)
			second, err := calc.Finalize()
			So(err, ShouldBeNil)

			Convey("Then both calls return the same final snapshot", func() {
				So(second, ShouldResemble, first)
				So(first.Objects, ShouldEqual, 100)
			})
		})
	})
}
