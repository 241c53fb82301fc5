package score

import (
	"github.com/ppy/osu-performance/internal/beatmap"
	"github.com/ppy/osu-performance/internal/mods"
	"github.com/ppy/osu-performance/internal/procerr"
)

// New dispatches on mode to construct the correct tagged variant. bm must
// be non-nil; callers are expected to have already resolved it through the
// beatmap cache.
func New(base Base, bm *beatmap.Beatmap) (Score, error) {
	switch base.Mode {
	case mods.Standard:
		return NewStandardScore(base, bm), nil
	case mods.Taiko:
		return NewTaikoScore(base, bm), nil
	case mods.CatchTheBeat:
		return NewCatchScore(base, bm), nil
	case mods.Mania:
		return NewManiaScore(base, bm), nil
	default:
		return nil, procerr.Wrapf(procerr.ErrConfigInvalid, "unknown gamemode %d", int(base.Mode))
	}
}
