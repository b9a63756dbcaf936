package mode_test

import (
	"testing"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/mode"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestByName(t *testing.T) {
	Convey("Given the registered mode tokens", t, func() {
		Convey("When resolving taiko", func() {
			p, err := mode.ByName("taiko")

			Convey("Then the percussion skills are present", func() {
				So(err, ShouldBeNil)
				So(p.Name, ShouldEqual, "taiko")
				names := []string{p.Skills[0].Name, p.Skills[1].Name, p.Skills[2].Name}
				So(names, ShouldResemble, []string{"color", "rhythm", "stamina"})
			})

			Convey("And the calibration defaults are applied", func() {
				So(p.SectionWidth, ShouldEqual, mode.DefaultSectionWidth)
				So(p.DecayWeight, ShouldEqual, mode.DefaultDecayWeight)
				So(p.NormExponent, ShouldEqual, mode.DefaultNormExponent)
				So(p.StarScaling, ShouldEqual, mode.DefaultStarScaling)
			})
		})

		Convey("When resolving standard and its alias", func() {
			p, err := mode.ByName("standard")
			So(err, ShouldBeNil)
			So(p.Skills, ShouldHaveLength, 2)

			alias, err := mode.ByName("osu")
			So(err, ShouldBeNil)
			So(alias.Name, ShouldEqual, "standard")
		})

		Convey("When resolving an unknown token", func() {
			_, err := mode.ByName("mania")

			Convey("Then ErrUnknownMode is returned", func() {
				So(err, ShouldWrap, mode.ErrUnknownMode)
			})
		})
	})
}

func TestStrengthFunctions(t *testing.T) {
	Convey("Given the taiko profile", t, func() {
		p, _ := mode.ByName("taiko")
		skill := func(name string) mode.Skill {
			for _, s := range p.Skills {
				if s.Name == name {
					return s
				}
			}
			t.Fatalf("skill %s not found", name)
			return mode.Skill{}
		}

		Convey("Then color ignores standard-mode objects", func() {
			So(skill("color").Strength(model.HitObject{Kind: model.KindCircle, Strength: 1}), ShouldEqual, 0)
			So(skill("color").Strength(model.HitObject{Kind: model.KindDon, Strength: 1}), ShouldEqual, 1)
		})

		Convey("And finishers load stamina double", func() {
			base := skill("stamina").Strength(model.HitObject{Kind: model.KindDon, Strength: 1})
			finisher := skill("stamina").Strength(model.HitObject{Kind: model.KindFinisher, Strength: 1})
			So(finisher, ShouldEqual, 2*base)
		})
	})

	Convey("Given the standard profile", t, func() {
		p, _ := mode.ByName("standard")

		Convey("Then spinners contribute to no skill", func() {
			for _, s := range p.Skills {
				So(s.Strength(model.HitObject{Kind: model.KindSpinner, Strength: 1}), ShouldEqual, 0)
			}
		})

		Convey("And sliders aim harder than circles", func() {
			aim := p.Skills[0]
			circle := aim.Strength(model.HitObject{Kind: model.KindCircle, Strength: 1})
			slider := aim.Strength(model.HitObject{Kind: model.KindSlider, Strength: 1})
			So(slider, ShouldBeGreaterThan, circle)
		})
	})
}
