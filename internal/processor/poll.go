package processor

import (
	"context"
	"sync"
	"time"

	"github.com/ppy/osu-performance/pkg/logger"
	"github.com/ppy/osu-performance/pkg/metrics"
)

// MonitorNewScores runs the score and beatmap-set pollers concurrently
// until ctx is canceled. Both loops check ctx between iterations, matching
// the cooperative shutdown described in §5: there is no forced cancellation
// of an in-flight query.
func (p *Processor) MonitorNewScores(ctx context.Context) error {
	// The live path flushes on every append.
	p.newScores = p.store.NewBatch(0)
	p.newUsers = p.store.NewBatch(0)

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- p.scorePollLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		errs <- p.beatmapPollLoop(ctx)
	}()

	wg.Wait()
	close(errs)

	var first error
	for err := range errs {
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// scorePollLoop is the single-threaded score poller. Every tick it drains
// every available new-score row before waiting for the next tick; an empty
// poll resets the timer per spec.
func (p *Processor) scorePollLoop(ctx context.Context) error {
	interval := time.Duration(p.cfg.ScoreUpdateIntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	processedSinceCheckpoint := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for {
			if ctx.Err() != nil {
				return nil
			}

			metrics.SetDBPendingQueries(p.mode.Tag(), "main", 1)
			rows, err := p.store.QueryNewScores(ctx, p.mode, p.currentScoreID)
			metrics.SetDBPendingQueries(p.mode.Tag(), "main", 0)
			if err != nil {
				p.log.Error(ctx, "score poll query failed", logger.Error(err))
				break
			}
			if len(rows) == 0 {
				break
			}

			metrics.SetScoreAmountBehindNewest(p.mode.Tag(), len(rows))

			for _, row := range rows {
				if row.ScoreID > p.currentScoreID {
					p.currentScoreID = row.ScoreID
				}

				if _, err := p.ProcessSingleUser(ctx, row.ScoreID, row.UserID); err != nil {
					p.log.Error(ctx, "single user processing failed",
						logger.Int("score_id", int(row.ScoreID)),
						logger.Int("user_id", int(row.UserID)),
						logger.Error(err))
					continue
				}
				metrics.ScoreProcessedNew(p.mode.Tag())

				processedSinceCheckpoint++
				if processedSinceCheckpoint >= checkpointEveryNScores {
					if err := p.persistScoreCheckpoint(ctx); err != nil {
						p.log.Error(ctx, "failed to persist score checkpoint", logger.Error(err))
					}
					processedSinceCheckpoint = 0
				}
			}
			// More rows may already be waiting; loop again immediately
			// rather than waiting for the next tick.
		}
	}
}

func (p *Processor) persistScoreCheckpoint(ctx context.Context) error {
	return p.store.SetCount(ctx, countKeyLastScorePrefix+p.mode.Suffix(), p.currentScoreID)
}

// beatmapPollLoop is the single-threaded beatmap-set poller, run in
// parallel with scorePollLoop. For each newly approved set it advances the
// watermark and lazy-loads that beatmap id into the cache.
func (p *Processor) beatmapPollLoop(ctx context.Context) error {
	interval := time.Duration(p.cfg.DifficultyUpdateIntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for {
			if ctx.Err() != nil {
				return nil
			}

			rows, err := p.store.QueryNewBeatmapSets(ctx, p.lastApprovedDate)
			if err != nil {
				p.log.Error(ctx, "beatmap set poll query failed", logger.Error(err))
				break
			}
			if len(rows) == 0 {
				break
			}

			for _, row := range rows {
				if row.ApprovedDate > p.lastApprovedDate {
					p.lastApprovedDate = row.ApprovedDate
				}
				metrics.DifficultyRequiredRetrieval(p.mode.Tag())
				bm, err := p.cache.GetOrLoad(ctx, row.BeatmapID)
				if err != nil {
					p.log.Warn(ctx, "beatmap lazy load failed",
						logger.Int("beatmap_id", int(row.BeatmapID)), logger.Error(err))
					metrics.DifficultyRetrievalNotFound(p.mode.Tag())
					continue
				}
				if bm == nil {
					metrics.DifficultyRetrievalNotFound(p.mode.Tag())
					continue
				}
				metrics.DifficultyRetrievalSuccess(p.mode.Tag())
			}
		}
	}
}
