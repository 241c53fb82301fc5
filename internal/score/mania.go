package score

import (
	"context"
	"math"

	"github.com/ppy/osu-performance/internal/beatmap"
	"github.com/ppy/osu-performance/internal/mods"
)

// ManiaScore is the Mania variant: a single {strain, accuracy} sub-value
// pair, where accuracy is derived from a windowed real-score.
type ManiaScore struct {
	Base
	pp PPRecord
}

// NewManiaScore constructs a Mania score and computes its PP record.
func NewManiaScore(base Base, bm *beatmap.Beatmap) *ManiaScore {
	s := &ManiaScore{Base: base}
	s.pp = s.computePPRecord(bm)
	return s
}

func (s *ManiaScore) ID() int64           { return s.ScoreID }
func (s *ManiaScore) UserID() int64       { return s.Base.UserID }
func (s *ManiaScore) BeatmapID() int32    { return s.Base.BeatmapID }
func (s *ManiaScore) Mode() mods.Gamemode { return s.Base.Mode }
func (s *ManiaScore) ModsValue() mods.Mods { return s.Base.Mods }

// TotalHits counts every column judgement: perfects, 300s, 100s, 50s and
// misses (Mania has no katus; geki doubles as the perfect judgement).
func (s *ManiaScore) TotalHits() int32 {
	return s.Counts.CountGeki + s.Counts.Count300 + s.Counts.Count100 + s.Counts.Count50 + s.Counts.CountMiss
}

func (s *ManiaScore) TotalSuccessfulHits() int32 {
	return s.Counts.CountGeki + s.Counts.Count300 + s.Counts.Count100 + s.Counts.Count50
}

func (s *ManiaScore) Accuracy() float64 {
	total := s.TotalHits()
	if total == 0 {
		return 0
	}
	num := float64(s.Counts.CountGeki)*300 + float64(s.Counts.Count300)*300 +
		float64(s.Counts.Count100)*100 + float64(s.Counts.Count50)*50
	return clamp01(num / (float64(total) * 300))
}

func (s *ManiaScore) TotalValue() float64 { return s.pp.Value }
func (s *ManiaScore) PPRecord() PPRecord  { return s.pp }

func (s *ManiaScore) AppendToUpdateBatch(ctx context.Context, batch BatchAppender) error {
	return batch.AppendAndCommit(ctx, updateStatement(s.Mode(), s.ID(), s.pp.Value))
}

func (s *ManiaScore) computePPRecord(bm *beatmap.Beatmap) PPRecord {
	accuracy := s.Accuracy()
	if gatedMania(s.Mods) {
		return PPRecord{Value: 0, Accuracy: accuracy}
	}

	totalHits := s.TotalHits()
	n := lengthBonus(totalHits)
	scoreMultiplier := float64(bm.Attribute(mods.Mania, s.Mods, beatmap.AttribScoreMultiplier))
	if scoreMultiplier <= 0 {
		scoreMultiplier = 1
	}

	var realScore float64
	if bm.ScoreVersion == 1 {
		keyModsAdjust := 1.0
		if s.Mods.HasAny(mods.KeyMods) {
			keyModsAdjust = 0.5
		}
		realScore = safeDiv(float64(s.RawScore), scoreMultiplier) * (2 - keyModsAdjust)
	} else {
		realScore = float64(s.RawScore)
	}

	strainRaw := float64(bm.Attribute(mods.Mania, s.Mods, beatmap.AttribStrain))
	strain := math.Pow(5*math.Max(1, strainRaw/0.2)-4, 2.2) / 135 * n
	strain *= math.Pow(0.97, float64(s.Counts.CountMiss))
	if s.Mods.Has(mods.NoFail) {
		strain *= 0.90
	}
	if s.Mods.Has(mods.Easy) {
		strain *= 0.50
	}

	acc := maniaAccuracySubValue(realScore)
	acc *= math.Pow(strain, 0.1)

	multiplier := 0.8
	if s.Mods.Has(mods.Hidden) {
		multiplier *= 1.0
	}
	if s.Mods.Has(mods.Easy) {
		multiplier *= 0.50
	}
	if s.Mods.Has(mods.NoFail) {
		multiplier *= 0.90
	}

	total := math.Pow(math.Pow(strain, 1.1)+math.Pow(acc, 1.1), 1/1.1) * multiplier
	return PPRecord{Value: total, Accuracy: accuracy}
}

// maniaAccuracySubValue implements the piecewise windowed curve over the
// score-version-normalized "real score".
func maniaAccuracySubValue(realScore float64) float64 {
	switch {
	case realScore < 500000:
		return 0
	case realScore < 600000:
		return (realScore - 500000) / 100000 * 0.3
	case realScore < 700000:
		return 0.3 + (realScore-600000)/100000*0.25
	case realScore < 800000:
		return 0.55 + (realScore-700000)/100000*0.20
	case realScore < 900000:
		return 0.75 + (realScore-800000)/100000*0.15
	default:
		return 0.90 + (realScore-900000)/100000*0.10
	}
}
