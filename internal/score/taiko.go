package score

import (
	"context"
	"math"

	"github.com/ppy/osu-performance/internal/beatmap"
	"github.com/ppy/osu-performance/internal/mods"
)

// TaikoScore is the Taiko mode variant: a single {difficulty, accuracy}
// sub-value pair combined into a total.
type TaikoScore struct {
	Base
	pp PPRecord
}

// NewTaikoScore constructs a Taiko score and computes its PP record.
func NewTaikoScore(base Base, bm *beatmap.Beatmap) *TaikoScore {
	s := &TaikoScore{Base: base}
	s.pp = s.computePPRecord(bm)
	return s
}

func (s *TaikoScore) ID() int64          { return s.ScoreID }
func (s *TaikoScore) UserID() int64      { return s.Base.UserID }
func (s *TaikoScore) BeatmapID() int32   { return s.Base.BeatmapID }
func (s *TaikoScore) Mode() mods.Gamemode { return s.Base.Mode }
func (s *TaikoScore) ModsValue() mods.Mods { return s.Base.Mods }

// TotalHits = num300 + num100 + numMiss (Taiko has no 50s).
func (s *TaikoScore) TotalHits() int32 {
	return s.Counts.Count300 + s.Counts.Count100 + s.Counts.CountMiss
}

func (s *TaikoScore) TotalSuccessfulHits() int32 {
	return s.Counts.Count300 + s.Counts.Count100
}

func (s *TaikoScore) Accuracy() float64 {
	total := s.TotalHits()
	if total == 0 {
		return 0
	}
	num := float64(s.Counts.Count100)*150 + float64(s.Counts.Count300)*300
	return clamp01(num / (float64(total) * 300))
}

func (s *TaikoScore) TotalValue() float64 { return s.pp.Value }
func (s *TaikoScore) PPRecord() PPRecord  { return s.pp }

func (s *TaikoScore) AppendToUpdateBatch(ctx context.Context, batch BatchAppender) error {
	return batch.AppendAndCommit(ctx, updateStatement(s.Mode(), s.ID(), s.pp.Value))
}

func (s *TaikoScore) computePPRecord(bm *beatmap.Beatmap) PPRecord {
	if gatedStandardOrTaiko(s.Mods) {
		return PPRecord{Value: 0, Accuracy: s.Accuracy()}
	}

	totalHits := s.TotalHits()
	accuracy := s.Accuracy()

	strain := float64(bm.Attribute(mods.Taiko, s.Mods, beatmap.AttribStrain))
	hitWindow300 := float64(bm.Attribute(mods.Taiko, s.Mods, beatmap.AttribHitWindow300))

	diff := math.Pow(5*math.Max(1, strain/0.115)-4, 2.25) / 1150
	diff *= 1 + 0.1*math.Min(1, float64(totalHits)/1500)
	diff *= math.Pow(0.986, float64(s.Counts.CountMiss))
	if s.Mods.Has(mods.Easy) {
		diff *= 0.980
	}
	if s.Mods.Has(mods.Hidden) {
		diff *= 1.025
	}
	lb := taikoLengthBonus(totalHits)
	if s.Mods.Has(mods.Flashlight) {
		diff *= 1.05 * lb
	}
	diff *= math.Pow(accuracy, 1.5)

	var acc float64
	if hitWindow300 > 0 {
		acc = math.Pow(140/hitWindow300, 1.1) * math.Pow(accuracy, 12) * 27
		acc *= math.Min(1.15, math.Pow(float64(totalHits)/1500, 0.3))
		if s.Mods.Has(mods.Hidden) && s.Mods.Has(mods.Flashlight) {
			acc *= 1.10 * lb
		}
	}

	multiplier := 1.12
	if s.Mods.Has(mods.Hidden) {
		multiplier *= 1.075
	}
	if s.Mods.Has(mods.Easy) {
		multiplier *= 0.975
	}

	total := math.Pow(math.Pow(diff, 1.1)+math.Pow(acc, 1.1), 1/1.1) * multiplier
	return PPRecord{Value: total, Accuracy: accuracy}
}

// taikoLengthBonus is Taiko's length bonus, 1 + 0.1*min(1, n/1500), used to
// scale the Flashlight difficulty bonus and the Hidden+Flashlight acc bonus.
func taikoLengthBonus(n int32) float64 {
	nf := float64(n)
	bonus := 1 + 0.1*math.Min(1, nf/1500)
	return bonus
}
