package beatmap

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ppy/osu-performance/internal/mods"
)

func TestAttributeProjection(t *testing.T) {
	Convey("Given a beatmap with a DoubleTime attribute and a bare one", t, func() {
		b := New(42)
		b.SetAttribute(mods.DoubleTime, AttribAim, 5.5)
		b.SetAttribute(mods.Mods(0), AttribAim, 4.0)

		Convey("Reading with the exact mods-key returns the stored value", func() {
			v := b.Attribute(mods.Standard, mods.DoubleTime, AttribAim)
			So(v, ShouldEqual, float32(5.5))
		})

		Convey("Reading with extra non-difficulty mods still hits the projected key", func() {
			v := b.Attribute(mods.Standard, mods.Hidden|mods.DoubleTime|mods.NoFail, AttribAim)
			So(v, ShouldEqual, float32(5.5))
		})

		Convey("Reading an absent key yields 0", func() {
			v := b.Attribute(mods.Standard, mods.HardRock, AttribSpeed)
			So(v, ShouldEqual, float32(0))
		})
	})
}

func TestSetNumHitCirclesClampsNegative(t *testing.T) {
	b := New(1)
	b.SetNumHitCircles(-5)
	if b.NumHitCircles != 0 {
		t.Fatalf("expected clamped 0, got %d", b.NumHitCircles)
	}
}

func TestAttribKindFromName(t *testing.T) {
	Convey("Given known and unknown attribute names", t, func() {
		kind, ok := AttribKindFromName("aim")
		So(ok, ShouldBeTrue)
		So(kind, ShouldEqual, AttribAim)

		_, ok = AttribKindFromName("not_a_real_attribute")
		So(ok, ShouldBeFalse)
	})
}
