package mode_test

import (
	"testing"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/mode"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseMods(t *testing.T) {
	Convey("Given mod acronym lists", t, func() {
		Convey("When parsing a mixed-case list", func() {
			m, err := mode.ParseMods([]string{"hd", "DT", " hr "})
			So(err, ShouldBeNil)

			Convey("Then every flag is set", func() {
				So(m.Has(mode.ModHidden), ShouldBeTrue)
				So(m.Has(mode.ModDoubleTime), ShouldBeTrue)
				So(m.Has(mode.ModHardRock), ShouldBeTrue)
				So(m.Has(mode.ModHalfTime), ShouldBeFalse)
			})

			Convey("And tokens round-trip in canonical order", func() {
				So(m.Tokens(), ShouldResemble, []string{"HD", "HR", "DT"})
				So(m.String(), ShouldEqual, "HDHRDT")
			})
		})

		Convey("When the list is empty", func() {
			m, err := mode.ParseMods(nil)
			So(err, ShouldBeNil)
			So(m, ShouldEqual, mode.Mods(0))
			So(m.String(), ShouldEqual, "NM")
		})

		Convey("When a token is unknown", func() {
			_, err := mode.ParseMods([]string{"DT", "XX"})

			Convey("Then the whole list is rejected", func() {
				So(err, ShouldWrap, mode.ErrUnknownMod)
			})
		})
	})
}

func TestModsClockRate(t *testing.T) {
	Convey("Given mod sets with rate modifiers", t, func() {
		cases := map[string]struct {
			mods mode.Mods
			rate float64
		}{
			"no mods":              {0, 1.0},
			"double time":          {mode.ModDoubleTime, 1.5},
			"nightcore":            {mode.ModNightcore, 1.5},
			"half time":            {mode.ModHalfTime, 0.75},
			"hidden only":          {mode.ModHidden, 1.0},
			"double time + hidden": {mode.ModDoubleTime | mode.ModHidden, 1.5},
		}

		for name, tc := range cases {
			Convey("Then "+name+" yields its playback rate", func() {
				So(tc.mods.ClockRate(), ShouldEqual, tc.rate)
			})
		}
	})
}
