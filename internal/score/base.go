// Package score implements the mode-dispatched score types (Component D)
// and their rating formulas (Component E). A Score is immutable once
// constructed: its PP record is computed in the constructor from the raw
// row and the beatmap it references.
package score

import (
	"context"
	"fmt"
	"math"

	"github.com/ppy/osu-performance/internal/mods"
)

// Counts holds the raw hit-judgement tallies read from the score row.
type Counts struct {
	Count300  int32
	Count100  int32
	Count50   int32
	CountMiss int32
	CountGeki int32 // Standard/Mania "perfect" judgement
	CountKatu int32 // Standard "good" judgement / CtB big-droplet miss
}

// PPRecord is the {value, accuracy} pair computed once at construction.
type PPRecord struct {
	Value    float64
	Accuracy float64
}

// Base carries the fields common to every mode variant.
type Base struct {
	ScoreID    int64
	Mode       mods.Gamemode
	UserID     int64
	BeatmapID  int32
	RawScore   int64
	MaxCombo   int32
	Counts     Counts
	Mods       mods.Mods
	storedPP   float64
	hasStoredPP bool
}

// NewBase constructs the common header. storedPP, hasStoredPP mirror the
// row's existing `pp` column (hasStoredPP is false when it was NULL).
func NewBase(scoreID int64, mode mods.Gamemode, userID int64, beatmapID int32, rawScore int64, maxCombo int32, counts Counts, m mods.Mods, storedPP float64, hasStoredPP bool) Base {
	return Base{
		ScoreID: scoreID, Mode: mode, UserID: userID, BeatmapID: beatmapID,
		RawScore: rawScore, MaxCombo: maxCombo, Counts: counts, Mods: m,
		storedPP: storedPP, hasStoredPP: hasStoredPP,
	}
}

// StoredPP returns the row's existing pp value and whether it was non-NULL.
func (b Base) StoredPP() (float64, bool) { return b.storedPP, b.hasStoredPP }

// Score is the polymorphic interface every mode variant satisfies.
type Score interface {
	ID() int64
	UserID() int64
	BeatmapID() int32
	Mode() mods.Gamemode
	ModsValue() mods.Mods
	TotalHits() int32
	TotalSuccessfulHits() int32
	Accuracy() float64
	TotalValue() float64
	PPRecord() PPRecord
	StoredPP() (float64, bool)
	AppendToUpdateBatch(ctx context.Context, batch BatchAppender) error
}

// BatchAppender is the narrow slice of Component G's Batch that a Score
// needs in order to emit its UPDATE statement.
type BatchAppender interface {
	AppendAndCommit(ctx context.Context, stmt string) error
}

// gatedStandardOrTaiko, gatedMania and gatedCatchTheBeat report whether the
// shared mod gating (Relax/Relax2/Autoplay, with Relax2 meaning Autopilot
// only for Standard, plus CtB's Autoplay-only gate) zeroes this mode's total
// value.
func gatedStandardOrTaiko(m mods.Mods) bool {
	return m.HasAny(mods.Relax | mods.Relax2 | mods.Autoplay)
}

func gatedMania(m mods.Mods) bool {
	return m.HasAny(mods.Relax | mods.Relax2 | mods.Autoplay)
}

func gatedCatchTheBeat(m mods.Mods) bool {
	return m.Has(mods.Autoplay)
}

// lengthBonus implements L(n) = 0.95 + 0.4*min(1, n/2000) + (n>2000 ?
// log10(n/2000)*0.5 : 0), shared by Standard's sub-values.
func lengthBonus(n int32) float64 {
	nf := float64(n)
	bonus := 0.95 + 0.4*math.Min(1, nf/2000)
	if nf > 2000 {
		bonus += math.Log10(nf/2000) * 0.5
	}
	return bonus
}

// clamp01 restricts x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// safeDiv returns a/b, or 0 when b is 0, matching the spec's divide-by-zero
// guard for sub-values.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// updateStatement builds the mode-specific per-score UPDATE targeting the
// row's pp column. Values are numeric only (score id, pp float), so direct
// formatting carries no injection risk.
func updateStatement(mode mods.Gamemode, scoreID int64, pp float64) string {
	return fmt.Sprintf("UPDATE osu_scores%s_high SET pp = %f WHERE score_id = %d", mode.Suffix(), pp, scoreID)
}
