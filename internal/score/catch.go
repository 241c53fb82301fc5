package score

import (
	"context"
	"math"

	"github.com/ppy/osu-performance/internal/beatmap"
	"github.com/ppy/osu-performance/internal/mods"
)

// CatchScore is the Catch-the-Beat variant: a single {difficulty, accuracy}
// sub-value pair, where difficulty is derived from the Aim attribute.
type CatchScore struct {
	Base
	pp PPRecord
}

// NewCatchScore constructs a CtB score and computes its PP record.
func NewCatchScore(base Base, bm *beatmap.Beatmap) *CatchScore {
	s := &CatchScore{Base: base}
	s.pp = s.computePPRecord(bm)
	return s
}

func (s *CatchScore) ID() int64           { return s.ScoreID }
func (s *CatchScore) UserID() int64       { return s.Base.UserID }
func (s *CatchScore) BeatmapID() int32    { return s.Base.BeatmapID }
func (s *CatchScore) Mode() mods.Gamemode { return s.Base.Mode }
func (s *CatchScore) ModsValue() mods.Mods { return s.Base.Mods }

// TotalHits counts every judged fruit-plate event: fruit hits, droplet
// hits, droplets missed, big-droplet misses and outright misses.
func (s *CatchScore) TotalHits() int32 {
	return s.Counts.Count300 + s.Counts.Count100 + s.Counts.Count50 + s.Counts.CountKatu + s.Counts.CountMiss
}

func (s *CatchScore) TotalSuccessfulHits() int32 {
	return s.Counts.Count300 + s.Counts.Count100
}

func (s *CatchScore) Accuracy() float64 {
	total := s.TotalHits()
	if total == 0 {
		return 0
	}
	return clamp01(float64(s.TotalSuccessfulHits()) / float64(total))
}

func (s *CatchScore) TotalValue() float64 { return s.pp.Value }
func (s *CatchScore) PPRecord() PPRecord  { return s.pp }

func (s *CatchScore) AppendToUpdateBatch(ctx context.Context, batch BatchAppender) error {
	return batch.AppendAndCommit(ctx, updateStatement(s.Mode(), s.ID(), s.pp.Value))
}

func (s *CatchScore) computePPRecord(bm *beatmap.Beatmap) PPRecord {
	accuracy := s.Accuracy()
	if gatedCatchTheBeat(s.Mods) {
		return PPRecord{Value: 0, Accuracy: accuracy}
	}

	totalHits := s.TotalHits()
	n := catchLengthBonus(totalHits)
	comboScale := s.comboScaling(bm)
	missPenalty := math.Pow(0.97, float64(s.Counts.CountMiss))
	ar := float64(bm.Attribute(mods.CatchTheBeat, s.Mods, beatmap.AttribApproachRate))

	aimRaw := float64(bm.Attribute(mods.CatchTheBeat, s.Mods, beatmap.AttribAim))
	value := math.Pow(5*math.Max(1, aimRaw/0.0049)-4, 2) / 100000
	value *= n
	value *= comboScale
	value *= missPenalty
	value *= catchARBonus(ar)
	if s.Mods.Has(mods.Hidden) {
		value *= 1 + 0.2*math.Max(0, 11-ar)
	}
	if s.Mods.Has(mods.Flashlight) {
		value *= 1 + 0.35*math.Min(1, float64(totalHits)/200)
	}
	value *= math.Pow(accuracy, 5.5)
	if s.Mods.Has(mods.NoFail) {
		value *= 0.90
	}

	return PPRecord{Value: value, Accuracy: accuracy}
}

func catchLengthBonus(n int32) float64 {
	nf := float64(n)
	bonus := 1.0 + 0.1*math.Min(1, nf/2500)
	if nf > 2500 {
		bonus += 0.1 * math.Log10(nf/2500)
	}
	return bonus
}

func catchARBonus(ar float64) float64 {
	switch {
	case ar > 9:
		return 1 + 0.1*(ar-9)
	case ar < 8:
		return 1 + 0.01*(8-ar)
	default:
		return 1
	}
}

func (s *CatchScore) comboScaling(bm *beatmap.Beatmap) float64 {
	if bm.MaxCombo <= 0 {
		return 1
	}
	return math.Min(math.Pow(float64(s.MaxCombo)/float64(bm.MaxCombo), 0.8), 1)
}
