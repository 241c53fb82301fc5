package processor

import (
	"context"

	"github.com/ppy/osu-performance/internal/workerpool"
	"github.com/ppy/osu-performance/pkg/logger"
	"github.com/ppy/osu-performance/pkg/metrics"
)

// doneSentinel is a stored pp_last_user_id value that makes a
// ProcessAllUsers(false, ...) call return immediately. The rebuild never
// writes it itself; on completion it persists the first id past the last
// range instead.
const doneSentinel = -1

// ProcessAllUsers rebuilds every user's rating in this mode across a
// fixed-size worker pool, checkpointing pp_last_user_id after each
// 10,000-id range so a restart resumes roughly where it left off.
func (p *Processor) ProcessAllUsers(ctx context.Context, reprocess bool, numThreads int) error {
	begin := int64(0)
	if !reprocess {
		stored, ok, err := p.store.GetCount(ctx, countKeyLastUserPrefix+p.mode.Suffix())
		if err != nil {
			return err
		}
		if ok {
			begin = stored
		}
	}
	if begin == doneSentinel {
		p.log.Info(ctx, "full rebuild already complete, nothing to do")
		return nil
	}

	maxUserID, err := p.store.QueryMaxUserID(ctx, p.mode)
	if err != nil {
		return err
	}

	pool := workerpool.New(numThreads, p.log.Named("rebuild-pool"))
	defer pool.Close()

	rangeSize := int64(p.cfg.BeatmapRangeSize)
	processedTotal := 0

	for begin <= maxUserID {
		if p.isShuttingDown() || ctx.Err() != nil {
			return nil
		}

		end := begin + rangeSize
		ids, err := p.store.QueryUserIDRange(ctx, p.mode, begin, end)
		if err != nil {
			return err
		}

		for _, id := range ids {
			userID := id
			pool.Submit(func(taskCtx context.Context) error {
				_, err := p.ProcessSingleUser(taskCtx, 0, userID)
				return err
			})
		}
		pool.Wait()

		if err := p.newScores.Flush(ctx); err != nil {
			return err
		}
		if err := p.newUsers.Flush(ctx); err != nil {
			return err
		}

		processedTotal += len(ids)
		metrics.SetDBPendingQueries(p.mode.Tag(), "background", 0)

		if err := p.store.SetCount(ctx, countKeyLastUserPrefix+p.mode.Suffix(), begin); err != nil {
			return err
		}

		p.log.Info(ctx, "rebuild range complete",
			logger.Int("range_start", int(begin)), logger.Int("range_end", int(end)),
			logger.Int("users_in_range", len(ids)), logger.Int("total_processed", processedTotal))

		begin = end
	}

	// begin now exceeds maxUserID by construction (the loop only exits once
	// a range step carries it past the max), so persisting it here
	// satisfies "pp_last_user_id equals or exceeds the maximum user id
	// seen" without needing a separate completion sentinel.
	return p.store.SetCount(ctx, countKeyLastUserPrefix+p.mode.Suffix(), begin)
}
