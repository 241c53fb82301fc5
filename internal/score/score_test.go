package score

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ppy/osu-performance/internal/beatmap"
	"github.com/ppy/osu-performance/internal/mods"
)

func newTestBeatmap(mode mods.Gamemode, m mods.Mods) *beatmap.Beatmap {
	bm := beatmap.New(1)
	bm.SetMaxCombo(1000)
	bm.SetAttribute(m.DifficultyKey(mode), beatmap.AttribAim, 5.0)
	bm.SetAttribute(m.DifficultyKey(mode), beatmap.AttribSpeed, 4.5)
	bm.SetAttribute(m.DifficultyKey(mode), beatmap.AttribApproachRate, 9.0)
	bm.SetAttribute(m.DifficultyKey(mode), beatmap.AttribOverallDifficulty, 8.0)
	bm.SetAttribute(m.DifficultyKey(mode), beatmap.AttribStrain, 4.5)
	bm.SetAttribute(m.DifficultyKey(mode), beatmap.AttribHitWindow300, 35)
	bm.SetAttribute(m.DifficultyKey(mode), beatmap.AttribScoreMultiplier, 1.0)
	return bm
}

func TestTaikoS1(t *testing.T) {
	Convey("Given the S1 scenario: no mods, strain 4.5, hitWindow300 35, 900x300", t, func() {
		bm := newTestBeatmap(mods.Taiko, 0)
		base := NewBase(1, mods.Taiko, 1, 1, 0, 0, Counts{Count300: 900}, 0, 0, false)
		s := NewTaikoScore(base, bm)

		Convey("Then the total value matches the closed-form Taiko formula", func() {
			totalHits := int32(900)
			accuracy := s.Accuracy()
			So(accuracy, ShouldEqual, 1.0)

			diff := math.Pow(5*math.Max(1, 4.5/0.115)-4, 2.25) / 1150
			diff *= 1 + 0.1*math.Min(1, float64(totalHits)/1500)
			diff *= math.Pow(0.986, 0)
			diff *= math.Pow(accuracy, 1.5)

			acc := math.Pow(140/35.0, 1.1) * math.Pow(accuracy, 12) * 27
			acc *= math.Min(1.15, math.Pow(float64(totalHits)/1500, 0.3))

			want := math.Pow(math.Pow(diff, 1.1)+math.Pow(acc, 1.1), 1/1.1) * 1.12

			So(s.TotalValue(), ShouldAlmostEqual, want, 1e-6)
		})
	})
}

func TestStandardRelaxGatesToZero(t *testing.T) {
	Convey("Given a Standard score with Relax set", t, func() {
		bm := newTestBeatmap(mods.Standard, mods.Relax)
		base := NewBase(1, mods.Standard, 1, 1, 0, 1000, Counts{Count300: 100}, mods.Relax, 0, false)
		s := NewStandardScore(base, bm)

		Convey("Then TotalValue is 0", func() {
			So(s.TotalValue(), ShouldEqual, 0)
		})
	})
}

func TestManiaAndCatchAutoplayGatesToZero(t *testing.T) {
	Convey("Given Mania and Catch scores with Autoplay set", t, func() {
		maniaBM := newTestBeatmap(mods.Mania, mods.Autoplay)
		maniaBase := NewBase(1, mods.Mania, 1, 1, 900000, 1000, Counts{CountGeki: 100}, mods.Autoplay, 0, false)
		maniaScore := NewManiaScore(maniaBase, maniaBM)

		catchBM := newTestBeatmap(mods.CatchTheBeat, mods.Autoplay)
		catchBase := NewBase(1, mods.CatchTheBeat, 1, 1, 0, 1000, Counts{Count300: 100}, mods.Autoplay, 0, false)
		catchScore := NewCatchScore(catchBase, catchBM)

		So(maniaScore.TotalValue(), ShouldEqual, 0)
		So(catchScore.TotalValue(), ShouldEqual, 0)
	})
}

func TestTotalHitsFormulas(t *testing.T) {
	Convey("Given counts across all four modes", t, func() {
		counts := Counts{Count300: 10, Count100: 5, Count50: 3, CountMiss: 2, CountGeki: 4, CountKatu: 1}

		std := &StandardScore{Base: NewBase(0, mods.Standard, 0, 0, 0, 0, counts, 0, 0, false)}
		So(std.TotalHits(), ShouldEqual, counts.Count300+counts.Count100+counts.Count50+counts.CountMiss)

		tai := &TaikoScore{Base: NewBase(0, mods.Taiko, 0, 0, 0, 0, counts, 0, 0, false)}
		So(tai.TotalHits(), ShouldEqual, counts.Count300+counts.Count100+counts.CountMiss)

		ctb := &CatchScore{Base: NewBase(0, mods.CatchTheBeat, 0, 0, 0, 0, counts, 0, 0, false)}
		So(ctb.TotalHits(), ShouldEqual, counts.Count300+counts.Count100+counts.Count50+counts.CountKatu+counts.CountMiss)

		man := &ManiaScore{Base: NewBase(0, mods.Mania, 0, 0, 0, 0, counts, 0, 0, false)}
		So(man.TotalHits(), ShouldEqual, counts.CountGeki+counts.Count300+counts.Count100+counts.Count50+counts.CountMiss)
	})
}

func TestAccuracyBounds(t *testing.T) {
	Convey("Given arbitrary counts across modes", t, func() {
		counts := Counts{Count300: 1, Count100: 50, Count50: 100, CountMiss: 20, CountGeki: 3, CountKatu: 7}
		modesToTest := []mods.Gamemode{mods.Standard, mods.Taiko, mods.CatchTheBeat, mods.Mania}
		for _, m := range modesToTest {
			base := NewBase(0, m, 0, 0, 0, 0, counts, 0, 0, false)
			bm := newTestBeatmap(m, 0)
			sc, err := New(base, bm)
			So(err, ShouldBeNil)
			So(sc.Accuracy(), ShouldBeGreaterThanOrEqualTo, 0)
			So(sc.Accuracy(), ShouldBeLessThanOrEqualTo, 1)
		}
	})
}

func TestZeroHitsYieldsZeroAccuracy(t *testing.T) {
	base := NewBase(0, mods.Standard, 0, 0, 0, 0, Counts{}, 0, 0, false)
	bm := newTestBeatmap(mods.Standard, 0)
	s := NewStandardScore(base, bm)
	if s.Accuracy() != 0 {
		t.Fatalf("expected 0 accuracy for zero hits, got %f", s.Accuracy())
	}
}

func TestConstructUnknownMode(t *testing.T) {
	base := NewBase(0, mods.Gamemode(9), 0, 0, 0, 0, Counts{}, 0, 0, false)
	_, err := New(base, beatmap.New(1))
	if err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
