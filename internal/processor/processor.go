// Package processor is the top-level orchestrator (Component H): it owns
// the beatmap cache, the blacklist and attribute tables, the score/beatmap
// poll loops, the fleet rebuild, and the single-user rating pipeline that
// ties components A through G together.
package processor

import (
	"context"
	"sync/atomic"

	"github.com/ppy/osu-performance/internal/beatmap"
	"github.com/ppy/osu-performance/internal/config"
	"github.com/ppy/osu-performance/internal/mods"
	"github.com/ppy/osu-performance/internal/procerr"
	"github.com/ppy/osu-performance/internal/store"
	"github.com/ppy/osu-performance/pkg/logger"
	"github.com/ppy/osu-performance/pkg/metrics"
)

const (
	checkpointEveryNScores = 100

	countKeyLastScorePrefix = "pp_last_score_id"
	countKeyLastUserPrefix  = "pp_last_user_id"
)

// Processor holds one gamemode's process-wide state: the beatmap cache, the
// blacklist, progress watermarks, and the batchers the single-user path
// writes through. One Processor exists per running mode.
type Processor struct {
	mode  mods.Gamemode
	store store.Store
	cache *beatmap.Cache
	cfg   *config.Config
	log   logger.Logger

	blacklist map[int32]struct{}

	// currentScoreID is owned exclusively by the score-poll goroutine.
	currentScoreID int64
	// lastApprovedDate is owned exclusively by the beatmap-poll goroutine.
	lastApprovedDate string

	// newScores batches per-score UPDATEs; its mutex serializes the several
	// appends one user's ProcessSingleUser call makes.
	newScores store.Batch
	// newUsers batches the one user-level UPDATE per ProcessSingleUser call.
	newUsers store.Batch

	shuttingDown int32
}

// New runs the startup sequence from SUPPLEMENTED FEATURES #1: blacklist,
// then the difficulty-attribute name table, then the full beatmap
// bootstrap into the newly constructed cache, in that exact order, before
// loading the watermarks and returning the Processor.
func New(ctx context.Context, mode mods.Gamemode, st store.Store, cfg *config.Config, log logger.Logger) (*Processor, error) {
	log = log.Named("processor").Named(mode.Tag())

	blacklist, err := st.QueryBlacklist(ctx, mode)
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "query beatmap blacklist")
	}

	names, err := st.QueryDifficultyAttribNames(ctx)
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "query difficulty attribute names")
	}
	attribKinds := beatmap.ResolveAttribNames(names, log)

	cache := beatmap.NewCache(mode, st, attribKinds, cfg.BeatmapRangeSize, log.Named("beatmap-cache"))
	if err := cache.BootstrapAll(ctx); err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "bootstrap beatmap cache")
	}

	lastApprovedDate, err := st.QueryMaxApprovedDate(ctx)
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "query max approved date")
	}

	currentScoreID, _, err := st.GetCount(ctx, countKeyLastScorePrefix+mode.Suffix())
	if err != nil {
		return nil, procerr.Wrap(procerr.ErrTransientDB, "load last score id checkpoint")
	}

	p := &Processor{
		mode:             mode,
		store:            st,
		cache:            cache,
		cfg:              cfg,
		log:              log,
		blacklist:        blacklist,
		currentScoreID:   currentScoreID,
		lastApprovedDate: lastApprovedDate,
		newScores:        st.NewBatch(cfg.UpdateBatchHWM),
		newUsers:         st.NewBatch(cfg.UpdateBatchHWM),
	}

	metrics.Startups(mode.Tag())
	log.Info(ctx, "processor started",
		logger.Int("beatmaps_cached", cache.Len()),
		logger.Int("blacklist_size", len(blacklist)),
		logger.String("last_approved_date", lastApprovedDate))

	return p, nil
}

// Shutdown requests that the poll loops exit at their next safe point and
// flushes the batchers. Safe to call once; MonitorNewScores observes it
// through ctx cancellation, not this flag alone — the flag exists so
// ProcessAllUsers' worker dispatch can also check it between batches.
func (p *Processor) Shutdown(ctx context.Context) error {
	atomic.StoreInt32(&p.shuttingDown, 1)
	if err := p.newScores.Flush(ctx); err != nil {
		return err
	}
	return p.newUsers.Flush(ctx)
}

func (p *Processor) isShuttingDown() bool {
	return atomic.LoadInt32(&p.shuttingDown) != 0
}
