// Package beatmap holds the Beatmap record and the shared, lazily-filled
// id-to-Beatmap cache read by every rating task.
package beatmap

import (
	"github.com/ppy/osu-performance/internal/mods"
)

// AttribKind enumerates the difficulty attributes a beatmap carries per
// mods-key.
type AttribKind int

const (
	AttribUnknown AttribKind = iota
	AttribAim
	AttribSpeed
	AttribOverallDifficulty
	AttribApproachRate
	AttribStrain
	AttribHitWindow300
	AttribScoreMultiplier
)

// attribNameTable maps the textual attribute names stored in
// osu_difficulty_attribs to their enum. Unrecognized names are logged by the
// cache loader and mapped to AttribUnknown.
var attribNameTable = map[string]AttribKind{
	"aim":                AttribAim,
	"speed":              AttribSpeed,
	"overall_difficulty": AttribOverallDifficulty,
	"approach_rate":      AttribApproachRate,
	"strain":             AttribStrain,
	"hit_window_300":     AttribHitWindow300,
	"score_multiplier":   AttribScoreMultiplier,
}

// AttribKindFromName resolves a textual attribute name to its enum. ok is
// false when unrecognized, in which case callers should log a warning and
// treat the row as AttribUnknown.
func AttribKindFromName(name string) (kind AttribKind, ok bool) {
	kind, ok = attribNameTable[name]
	return kind, ok
}

type attribKey struct {
	modsKey mods.Mods
	kind    AttribKind
}

// Beatmap is a single ranked (or not) map's difficulty-relevant metadata.
// Safe for concurrent read once published into the cache; all writes happen
// while the cache holds its write lock.
type Beatmap struct {
	ID            int32
	RankedStatus  int
	ScoreVersion  int
	NumHitCircles int32
	MaxCombo      int32

	attributes map[attribKey]float32
}

// New constructs an empty Beatmap for id, ready to receive attributes.
func New(id int32) *Beatmap {
	return &Beatmap{ID: id, attributes: make(map[attribKey]float32)}
}

// SetRankedStatus assigns the ranked status; idempotent under reload.
func (b *Beatmap) SetRankedStatus(status int) { b.RankedStatus = status }

// SetScoreVersion assigns the score-version (affects Mania's score scaling).
func (b *Beatmap) SetScoreVersion(version int) { b.ScoreVersion = version }

// SetNumHitCircles assigns the hit-circle count. Negative values are
// clamped to 0; the store never produces them, but defending here keeps the
// invariant visible at the type's boundary.
func (b *Beatmap) SetNumHitCircles(n int32) {
	if n < 0 {
		n = 0
	}
	b.NumHitCircles = n
}

// SetMaxCombo assigns the beatmap's maximum achievable combo.
func (b *Beatmap) SetMaxCombo(n int32) { b.MaxCombo = n }

// SetAttribute stores value at (modsKey, kind), overwriting any previous
// entry. The caller is expected to have already projected modsKey through
// Mods.DifficultyKey; SetAttribute stores exactly what it is given.
func (b *Beatmap) SetAttribute(modsKey mods.Mods, kind AttribKind, value float32) {
	b.attributes[attribKey{modsKey, kind}] = value
}

// Attribute reads the value at (m, kind), applying the difficulty-key
// projection for mode before lookup. Missing entries yield 0.
func (b *Beatmap) Attribute(mode mods.Gamemode, m mods.Mods, kind AttribKind) float32 {
	return b.attributes[attribKey{m.DifficultyKey(mode), kind}]
}
