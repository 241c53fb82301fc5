package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ppy/osu-performance/internal/beatmap"
	"github.com/ppy/osu-performance/internal/mods"
)

// Fake is an in-memory Store used throughout internal/processor's tests and
// anywhere a real MySQL connection isn't available. All four modes share one
// Fake instance; callers key their own rows by mode where it matters.
type Fake struct {
	mu sync.Mutex

	BeatmapRows map[mods.Gamemode][]beatmap.Row
	Blacklist   map[mods.Gamemode]map[int32]struct{}
	AttribNames map[int32]string

	UserScores   map[mods.Gamemode]map[int64][]ScoreRow
	NewScores    map[mods.Gamemode][]NewScoreRow
	NewBeatmaps  []NewBeatmapRow
	UserIDs      map[mods.Gamemode][]int64
	UserPP       map[mods.Gamemode]map[int64]float64

	Counts map[string]int64

	PerformanceChanges []PerformanceChange
	StatsUpdates       []StatsUpdate

	execs []string
}

// PerformanceChange records one InsertPerformanceChange call for assertions.
type PerformanceChange struct {
	Mode      mods.Gamemode
	UserID    int64
	BeatmapID int32
	Change    float64
}

// StatsUpdate records one ApplyUserStatsUpdate call for assertions.
type StatsUpdate struct {
	Mode     mods.Gamemode
	Column   string
	UserID   int64
	Value    float64
	Accuracy float64
}

// NewFake returns an empty Fake ready for a test to populate its exported
// fields directly before exercising the code under test.
func NewFake() *Fake {
	return &Fake{
		BeatmapRows: make(map[mods.Gamemode][]beatmap.Row),
		Blacklist:   make(map[mods.Gamemode]map[int32]struct{}),
		AttribNames: make(map[int32]string),
		UserScores:  make(map[mods.Gamemode]map[int64][]ScoreRow),
		NewScores:   make(map[mods.Gamemode][]NewScoreRow),
		UserIDs:     make(map[mods.Gamemode][]int64),
		UserPP:      make(map[mods.Gamemode]map[int64]float64),
		Counts:      make(map[string]int64),
	}
}

func (f *Fake) QueryBeatmapRange(ctx context.Context, mode mods.Gamemode, startID, endID int32) ([]beatmap.Row, error) {
	var out []beatmap.Row
	for _, r := range f.BeatmapRows[mode] {
		if r.BeatmapID >= startID && r.BeatmapID < endID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *Fake) QueryBeatmapByID(ctx context.Context, mode mods.Gamemode, id int32) ([]beatmap.Row, error) {
	var out []beatmap.Row
	for _, r := range f.BeatmapRows[mode] {
		if r.BeatmapID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *Fake) QueryBlacklist(ctx context.Context, mode mods.Gamemode) (map[int32]struct{}, error) {
	out := make(map[int32]struct{}, len(f.Blacklist[mode]))
	for id := range f.Blacklist[mode] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (f *Fake) QueryDifficultyAttribNames(ctx context.Context) (map[int32]string, error) {
	out := make(map[int32]string, len(f.AttribNames))
	for id, name := range f.AttribNames {
		out[id] = name
	}
	return out, nil
}

func (f *Fake) QueryUserScores(ctx context.Context, mode mods.Gamemode, userID int64) ([]ScoreRow, error) {
	return f.UserScores[mode][userID], nil
}

func (f *Fake) QueryNewScores(ctx context.Context, mode mods.Gamemode, afterScoreID int64) ([]NewScoreRow, error) {
	var out []NewScoreRow
	for _, r := range f.NewScores[mode] {
		if r.ScoreID > afterScoreID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScoreID < out[j].ScoreID })
	return out, nil
}

func (f *Fake) QueryNewBeatmapSets(ctx context.Context, afterApprovedDate string) ([]NewBeatmapRow, error) {
	var out []NewBeatmapRow
	for _, r := range f.NewBeatmaps {
		if r.ApprovedDate > afterApprovedDate {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ApprovedDate < out[j].ApprovedDate })
	return out, nil
}

func (f *Fake) QueryUserIDRange(ctx context.Context, mode mods.Gamemode, start, end int64) ([]int64, error) {
	var out []int64
	for _, id := range f.UserIDs[mode] {
		if id >= start && id < end {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *Fake) QueryMaxUserID(ctx context.Context, mode mods.Gamemode) (int64, error) {
	var max int64
	for _, id := range f.UserIDs[mode] {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (f *Fake) QueryMaxApprovedDate(ctx context.Context) (string, error) {
	var max string
	for _, r := range f.NewBeatmaps {
		if r.ApprovedDate > max {
			max = r.ApprovedDate
		}
	}
	return max, nil
}

func (f *Fake) QueryUserPP(ctx context.Context, mode mods.Gamemode, column string, userID int64) (float64, bool, error) {
	v, ok := f.UserPP[mode][userID]
	return v, ok, nil
}

func (f *Fake) GetCount(ctx context.Context, key string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.Counts[key]
	return v, ok, nil
}

func (f *Fake) SetCount(ctx context.Context, key string, value int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Counts[key] = value
	return nil
}

func (f *Fake) InsertPerformanceChange(ctx context.Context, mode mods.Gamemode, userID int64, beatmapID int32, change float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PerformanceChanges = append(f.PerformanceChanges, PerformanceChange{mode, userID, beatmapID, change})
	return nil
}

// ApplyUserStatsUpdate lets tests simulate the effect of a flushed
// osu_user_stats UPDATE statement without parsing SQL: it records the call
// and updates QueryUserPP's backing map directly.
func (f *Fake) ApplyUserStatsUpdate(mode mods.Gamemode, column string, userID int64, value, accuracy float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatsUpdates = append(f.StatsUpdates, StatsUpdate{mode, column, userID, value, accuracy})
	if v, ok := f.UserPP[mode]; ok {
		v[userID] = value
	} else {
		f.UserPP[mode] = map[int64]float64{userID: value}
	}
}

// ExecContext records stmt for inspection; Fake's batches never fail.
func (f *Fake) ExecContext(ctx context.Context, stmt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, stmt)
	return nil
}

// Execs returns every statement flushed through a batch bound to this Fake.
func (f *Fake) Execs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.execs))
	copy(out, f.execs)
	return out
}

func (f *Fake) NewBatch(hwm int) Batch { return newBatch(f, hwm, nil) }

func (f *Fake) Close() error { return nil }
