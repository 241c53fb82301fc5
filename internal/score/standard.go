package score

import (
	"context"
	"math"

	"github.com/ppy/osu-performance/internal/beatmap"
	"github.com/ppy/osu-performance/internal/mods"
)

// StandardScore is the osu!standard variant: Aim, Speed, Accuracy and
// Flashlight sub-values combined into a total.
type StandardScore struct {
	Base
	pp PPRecord
}

// NewStandardScore constructs a Standard score and computes its PP record.
func NewStandardScore(base Base, bm *beatmap.Beatmap) *StandardScore {
	s := &StandardScore{Base: base}
	s.pp = s.computePPRecord(bm)
	return s
}

func (s *StandardScore) ID() int64           { return s.ScoreID }
func (s *StandardScore) UserID() int64       { return s.Base.UserID }
func (s *StandardScore) BeatmapID() int32    { return s.Base.BeatmapID }
func (s *StandardScore) Mode() mods.Gamemode { return s.Base.Mode }
func (s *StandardScore) ModsValue() mods.Mods { return s.Base.Mods }

func (s *StandardScore) TotalHits() int32 {
	return s.Counts.Count300 + s.Counts.Count100 + s.Counts.Count50 + s.Counts.CountMiss
}

func (s *StandardScore) TotalSuccessfulHits() int32 {
	return s.Counts.Count300 + s.Counts.Count100 + s.Counts.Count50
}

func (s *StandardScore) Accuracy() float64 {
	total := s.TotalHits()
	if total == 0 {
		return 0
	}
	num := float64(s.Counts.Count50)*50 + float64(s.Counts.Count100)*100 + float64(s.Counts.Count300)*300
	return clamp01(num / (float64(total) * 300))
}

func (s *StandardScore) TotalValue() float64 { return s.pp.Value }
func (s *StandardScore) PPRecord() PPRecord  { return s.pp }

func (s *StandardScore) AppendToUpdateBatch(ctx context.Context, batch BatchAppender) error {
	return batch.AppendAndCommit(ctx, updateStatement(s.Mode(), s.ID(), s.pp.Value))
}

func (s *StandardScore) computePPRecord(bm *beatmap.Beatmap) PPRecord {
	accuracy := s.Accuracy()
	if gatedStandardOrTaiko(s.Mods) {
		return PPRecord{Value: 0, Accuracy: accuracy}
	}

	totalHits := s.TotalHits()
	n := lengthBonus(totalHits)

	effectiveMiss := s.effectiveMissCount(bm)
	comboScale := s.comboScaling(bm)
	ar := float64(bm.Attribute(mods.Standard, s.Mods, beatmap.AttribApproachRate))
	od := float64(bm.Attribute(mods.Standard, s.Mods, beatmap.AttribOverallDifficulty))

	accFactor := 0.5 + accuracy/2
	odFactor := 0.98 + od*od/2500
	arBonus := standardARBonus(ar)
	missPenalty := math.Pow(0.97, float64(effectiveMiss))

	aimRaw := float64(bm.Attribute(mods.Standard, s.Mods, beatmap.AttribAim))
	aim := standardBase(aimRaw) * n * missPenalty * comboScale * arBonus
	if s.Mods.Has(mods.Hidden) {
		aim *= 1 + 0.04*math.Max(0, 12-ar)
	}
	if s.Mods.Has(mods.Flashlight) {
		aim *= 1 + 0.35*math.Min(1, float64(totalHits)/200)
	}
	aim *= accFactor * odFactor

	speedRaw := float64(bm.Attribute(mods.Standard, s.Mods, beatmap.AttribSpeed))
	speed := standardBase(speedRaw) * n * missPenalty * comboScale * arBonus
	speed *= accFactor * odFactor

	bestAcc := accuracy
	accValue := math.Pow(1.52163, od) * math.Pow(bestAcc, 24) * 2.83
	accValue *= math.Min(1.15, math.Pow(float64(totalHits)/1500, 0.3))
	if s.Mods.Has(mods.Hidden) {
		accValue *= 1.08
	}
	if s.Mods.Has(mods.Flashlight) {
		accValue *= 1.02
	}

	var flashlight float64
	if s.Mods.Has(mods.Flashlight) {
		flRaw := float64(bm.Attribute(mods.Standard, s.Mods, beatmap.AttribAim))
		flashlight = math.Pow(flRaw/0.0675, 2) * 0.25
		flashlight *= n * missPenalty * comboScale * accFactor
	}

	multiplier := 1.12
	if s.Mods.Has(mods.NoFail) {
		multiplier *= 0.90
	}
	if s.Mods.Has(mods.SpunOut) {
		multiplier *= 0.95
	}

	total := math.Pow(
		math.Pow(aim, 1.1)+math.Pow(speed, 1.1)+math.Pow(accValue, 1.1)+math.Pow(flashlight, 1.1),
		1/1.1,
	) * multiplier

	return PPRecord{Value: total, Accuracy: accuracy}
}

// standardBase maps a raw aim/speed difficulty attribute through the shared
// curve `(5*max(1, d/0.0675) - 4)^3 / 100000`.
func standardBase(d float64) float64 {
	return math.Pow(5*math.Max(1, d/0.0675)-4, 3) / 100000
}

// standardARBonus applies the extra multiplier for AR outside [8, 10.33].
func standardARBonus(ar float64) float64 {
	switch {
	case ar > 10.33:
		return 1 + 0.3*(ar-10.33)
	case ar < 8:
		return 1 + 0.01*(8-ar)
	default:
		return 1
	}
}

// effectiveMissCount implements the combo-scaling penalty used to
// approximate missed sliders when the play isn't a full combo.
func (s *StandardScore) effectiveMissCount(bm *beatmap.Beatmap) int32 {
	beatmapMaxCombo := bm.MaxCombo
	if beatmapMaxCombo <= 0 || s.MaxCombo >= beatmapMaxCombo {
		return s.Counts.CountMiss
	}
	totalHits := s.TotalHits()
	countable := math.Min(float64(s.Counts.CountMiss+s.Counts.Count50+s.Counts.Count100), float64(totalHits))
	ratio := 1 - float64(s.MaxCombo)/float64(beatmapMaxCombo)
	penalty := math.Floor(countable * math.Pow(ratio, 3))
	if penalty < 0 {
		penalty = 0
	}
	if float64(s.Counts.CountMiss) > penalty {
		return s.Counts.CountMiss
	}
	return int32(penalty)
}

func (s *StandardScore) comboScaling(bm *beatmap.Beatmap) float64 {
	if bm.MaxCombo <= 0 {
		return 1
	}
	ratio := math.Pow(float64(s.MaxCombo), 0.8) / math.Pow(float64(bm.MaxCombo), 0.8)
	return math.Min(ratio, 1)
}
