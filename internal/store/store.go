// Package store is the external-collaborator boundary: everything that
// talks to MySQL. The core (mods, beatmap, score, user, processor,
// workerpool) depends only on the Store and Batch interfaces defined here,
// never on database/sql directly.
package store

import (
	"context"
	"sync"

	"github.com/ppy/osu-performance/internal/beatmap"
	"github.com/ppy/osu-performance/internal/mods"
)

// ScoreRow is one row from osu_scores{suffix}_high for a user's full score
// history.
type ScoreRow struct {
	ScoreID     int64
	UserID      int64
	BeatmapID   int32
	RawScore    int64
	MaxCombo    int32
	Count300    int32
	Count100    int32
	Count50     int32
	CountMiss   int32
	CountGeki   int32
	CountKatu   int32
	Mods        mods.Mods
	StoredPP    float64
	HasStoredPP bool
}

// NewScoreRow is a row surfaced by the live score poller: just enough to
// drive the single-user path plus the watermark advance.
type NewScoreRow struct {
	ScoreID int64
	UserID  int64
}

// NewBeatmapRow is a row surfaced by the beatmap-set poller.
type NewBeatmapRow struct {
	BeatmapID    int32
	ApprovedDate string
}

// Store is the boundary the core is coded against.
type Store interface {
	QueryBeatmapRange(ctx context.Context, mode mods.Gamemode, startID, endID int32) ([]beatmap.Row, error)
	QueryBeatmapByID(ctx context.Context, mode mods.Gamemode, id int32) ([]beatmap.Row, error)
	QueryBlacklist(ctx context.Context, mode mods.Gamemode) (map[int32]struct{}, error)
	QueryDifficultyAttribNames(ctx context.Context) (map[int32]string, error)

	QueryUserScores(ctx context.Context, mode mods.Gamemode, userID int64) ([]ScoreRow, error)
	QueryNewScores(ctx context.Context, mode mods.Gamemode, afterScoreID int64) ([]NewScoreRow, error)
	QueryNewBeatmapSets(ctx context.Context, afterApprovedDate string) ([]NewBeatmapRow, error)

	QueryUserIDRange(ctx context.Context, mode mods.Gamemode, start, end int64) ([]int64, error)
	QueryMaxUserID(ctx context.Context, mode mods.Gamemode) (int64, error)
	QueryMaxApprovedDate(ctx context.Context) (string, error)
	QueryUserPP(ctx context.Context, mode mods.Gamemode, column string, userID int64) (float64, bool, error)

	GetCount(ctx context.Context, key string) (int64, bool, error)
	SetCount(ctx context.Context, key string, value int64) error

	InsertPerformanceChange(ctx context.Context, mode mods.Gamemode, userID int64, beatmapID int32, change float64) error

	NewBatch(hwm int) Batch

	Close() error
}

// Batch is Component G: a buffer of pending write statements bound to one
// connection, flushed on a high-water mark or on demand.
type Batch interface {
	// AppendAndCommit appends stmt and flushes if the buffer is now over
	// the high-water mark.
	AppendAndCommit(ctx context.Context, stmt string) error
	// Mutex lets callers bracket several appends for one user atomically.
	Mutex() *sync.Mutex
	// PendingCount reports how many statements are buffered.
	PendingCount() int
	// Flush submits every buffered statement and clears the buffer.
	Flush(ctx context.Context) error
}
