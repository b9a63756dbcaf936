package mapgen_test

import (
	"testing"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/mode"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/model"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/mapgen"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given a taiko generation config", t, func() {
		cfg := mapgen.Config{Mode: "taiko", Count: 500, BPM: 180, Seed: 42}

		Convey("When generating", func() {
			objs, err := mapgen.Generate(cfg)
			So(err, ShouldBeNil)

			Convey("Then the stream has the requested length in timestamp order", func() {
				So(objs, ShouldHaveLength, 500)
				for i := 1; i < len(objs); i++ {
					So(objs[i].Timestamp, ShouldBeGreaterThanOrEqualTo, objs[i-1].Timestamp)
				}
			})

			Convey("And only taiko kinds appear", func() {
				for _, o := range objs {
					So(o.Kind, ShouldBeIn, model.KindDon, model.KindKat, model.KindFinisher)
				}
			})

			Convey("And the same seed reproduces the same stream", func() {
				again, err := mapgen.Generate(cfg)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, objs)
			})

			Convey("And a different seed produces a different stream", func() {
				other := cfg
				other.Seed = 43
				objs2, err := mapgen.Generate(other)
				So(err, ShouldBeNil)
				So(objs2, ShouldNotResemble, objs)
			})
		})
	})

	Convey("Given a standard generation config", t, func() {
		objs, err := mapgen.Generate(mapgen.Config{Mode: "standard", Count: 300, BPM: 160, Seed: 1})
		So(err, ShouldBeNil)

		Convey("Then only standard kinds appear", func() {
			for _, o := range objs {
				So(o.Kind, ShouldBeIn, model.KindCircle, model.KindSlider, model.KindSpinner)
			}
		})

		Convey("And the stream feeds the difficulty pipeline", func() {
			_, err := mode.ByName("standard")
			So(err, ShouldBeNil)
			for _, o := range objs {
				So(o.Strength, ShouldEqual, 1.0)
			}
		})
	})

	Convey("Given invalid configs", t, func() {
		Convey("When the mode is unknown", func() {
			_, err := mapgen.Generate(mapgen.Config{Mode: "mania", Count: 10})
			So(err, ShouldWrap, mode.ErrUnknownMode)
		})

		Convey("When the count is non-positive", func() {
			_, err := mapgen.Generate(mapgen.Config{Mode: "taiko", Count: 0})
			So(err, ShouldNotBeNil)
		})
	})
}
