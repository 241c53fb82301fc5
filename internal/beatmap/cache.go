package beatmap

import (
	"context"
	"sync"

	"github.com/ppy/osu-performance/internal/mods"
	"github.com/ppy/osu-performance/pkg/logger"
)

// Row is one difficulty-attribute row as fetched from the store:
// (beatmap_id, numHitCircles, maxCombo, mods, attrib_id, value, approved,
// score_version). One beatmap typically spans many rows, one per
// (mods, attribute) pair.
type Row struct {
	BeatmapID     int32
	NumHitCircles int32
	MaxCombo      int32
	Mods          mods.Mods
	AttribID      int32
	Value         float32
	Approved      int
	ScoreVersion  int
}

// Loader is the store boundary the cache needs: a ranged bootstrap query and
// a targeted single-id query for lazy fill.
type Loader interface {
	QueryBeatmapRange(ctx context.Context, mode mods.Gamemode, startID, endID int32) ([]Row, error)
	QueryBeatmapByID(ctx context.Context, mode mods.Gamemode, id int32) ([]Row, error)
}

// ResolveAttribNames maps the store's id->name table to id->AttribKind,
// logging a warning for every name this processor doesn't recognize.
func ResolveAttribNames(names map[int32]string, log logger.Logger) map[int32]AttribKind {
	out := make(map[int32]AttribKind, len(names))
	for id, name := range names {
		kind, ok := AttribKindFromName(name)
		if !ok {
			log.Warn(context.Background(), "unrecognized difficulty attribute name",
				logger.Int("attrib_id", int(id)), logger.String("name", name))
			kind = AttribUnknown
		}
		out[id] = kind
	}
	return out
}

// Cache is a concurrent id->Beatmap map, lazily populated from the store in
// chunks. One owner per mode; the cache outlives all its readers.
type Cache struct {
	mu   sync.RWMutex
	byID map[int32]*Beatmap

	mode        mods.Gamemode
	loader      Loader
	attribKinds map[int32]AttribKind
	rangeSize   int32
	log         logger.Logger
}

// NewCache constructs an empty cache for mode. attribKinds is the resolved
// id->AttribKind table built once at startup via ResolveAttribNames.
func NewCache(mode mods.Gamemode, loader Loader, attribKinds map[int32]AttribKind, rangeSize int32, log logger.Logger) *Cache {
	return &Cache{
		byID:        make(map[int32]*Beatmap),
		mode:        mode,
		loader:      loader,
		attribKinds: attribKinds,
		rangeSize:   rangeSize,
		log:         log,
	}
}

// Get probes the cache under the read lock only; it never triggers a load.
func (c *Cache) Get(id int32) (*Beatmap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.byID[id]
	return b, ok
}

// GetOrLoad probes the cache; on a miss it drops the read lock, performs a
// targeted single-id load under the write lock, then re-probes under a
// fresh read lock since another caller may have filled it meanwhile. Lock
// upgrade is never attempted directly.
func (c *Cache) GetOrLoad(ctx context.Context, id int32) (*Beatmap, error) {
	c.mu.RLock()
	b, ok := c.byID[id]
	c.mu.RUnlock()
	if ok {
		return b, nil
	}

	if err := c.loadSingle(ctx, id); err != nil {
		return nil, err
	}

	c.mu.RLock()
	b, ok = c.byID[id]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (c *Cache) loadSingle(ctx context.Context, id int32) error {
	rows, err := c.loader.QueryBeatmapByID(ctx, c.mode, id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyRowsLocked(rows)
	return nil
}

// BootstrapAll loads the entire beatmap set by id ranges of rangeSize until
// an empty range is observed, per the processor's startup sequence.
func (c *Cache) BootstrapAll(ctx context.Context) error {
	var start int32
	for {
		end := start + c.rangeSize
		rows, err := c.loader.QueryBeatmapRange(ctx, c.mode, start, end)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		c.mu.Lock()
		c.applyRowsLocked(rows)
		c.mu.Unlock()
		start = end
	}
}

// applyRowsLocked upserts every row's beatmap and attribute entry. Caller
// must hold the write lock.
func (c *Cache) applyRowsLocked(rows []Row) {
	for _, r := range rows {
		b, ok := c.byID[r.BeatmapID]
		if !ok {
			b = New(r.BeatmapID)
			c.byID[r.BeatmapID] = b
		}
		b.SetRankedStatus(r.Approved)
		b.SetScoreVersion(r.ScoreVersion)
		b.SetNumHitCircles(r.NumHitCircles)
		b.SetMaxCombo(r.MaxCombo)

		kind := c.attribKinds[r.AttribID]
		b.SetAttribute(r.Mods, kind, r.Value)
	}
}

// Len reports the number of cached beatmaps, for tests and diagnostics.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
