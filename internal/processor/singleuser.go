package processor

import (
	"context"
	"fmt"

	"github.com/ppy/osu-performance/internal/config"
	"github.com/ppy/osu-performance/internal/mods"
	"github.com/ppy/osu-performance/internal/score"
	"github.com/ppy/osu-performance/internal/store"
	"github.com/ppy/osu-performance/internal/user"
	"github.com/ppy/osu-performance/pkg/logger"
	"github.com/ppy/osu-performance/pkg/metrics"
)

const (
	// diffThreshold is the minimum |newPP - storedPP| before a per-score
	// UPDATE is scheduled.
	diffThreshold = 0.001
	// notableEventFraction: an updated score must exceed userTotal/21.5 to
	// be eligible as the notable event.
	notableEventFraction = 21.5
	// notableEventMinChange is the minimum rating delta for a notable event
	// to be recorded.
	notableEventMinChange = 5.0
)

type pendingScoreUpdate struct {
	sc score.Score
}

// ProcessSingleUser runs the full rating pipeline for one user: load their
// scores, evaluate each against the beatmap cache, aggregate, schedule
// writes, and detect notable events. selectedScoreID of 0 makes every score
// eligible for a per-score UPDATE; a positive value narrows eligibility to
// that one score id (used by the live poller). Either way a score with a
// stored pp is only updated when the new value differs by more than
// diffThreshold, and a score with no stored pp is always updated. It returns
// the user's finalized PP record so callers like ProcessUsers can build a
// summary without re-querying.
func (p *Processor) ProcessSingleUser(ctx context.Context, selectedScoreID, userID int64) (score.PPRecord, error) {
	rows, err := p.store.QueryUserScores(ctx, p.mode, userID)
	if err != nil {
		return score.PPRecord{}, err
	}

	agg := user.New(userID)
	var pending []pendingScoreUpdate
	var firstPending score.Score

	for _, row := range rows {
		if _, blacklisted := p.blacklist[row.BeatmapID]; blacklisted {
			continue
		}

		bm, ok := p.cache.Get(row.BeatmapID)
		if !ok {
			metrics.DifficultyRequiredRetrieval(p.mode.Tag())
			loaded, err := p.cache.GetOrLoad(ctx, row.BeatmapID)
			if err != nil {
				p.log.Warn(ctx, "beatmap load failed during single-user pass",
					logger.Int("beatmap_id", int(row.BeatmapID)), logger.Error(err))
				metrics.DifficultyRetrievalNotFound(p.mode.Tag())
				continue
			}
			if loaded == nil {
				metrics.DifficultyRetrievalNotFound(p.mode.Tag())
				continue
			}
			metrics.DifficultyRetrievalSuccess(p.mode.Tag())
			bm = loaded
		}

		if !config.InAcceptedWindow(bm.RankedStatus) {
			continue
		}

		base := score.NewBase(row.ScoreID, p.mode, row.UserID, row.BeatmapID, row.RawScore, row.MaxCombo,
			score.Counts{
				Count300:  row.Count300,
				Count100:  row.Count100,
				Count50:   row.Count50,
				CountMiss: row.CountMiss,
				CountGeki: row.CountGeki,
				CountKatu: row.CountKatu,
			}, row.Mods, row.StoredPP, row.HasStoredPP)

		sc, err := score.New(base, bm)
		if err != nil {
			p.log.Warn(ctx, "score construction failed", logger.Error(err))
			continue
		}

		pp := sc.PPRecord()
		agg.Add(pp)

		if shouldUpdate(row, selectedScoreID, pp.Value) {
			if firstPending == nil {
				firstPending = sc
			}
			pending = append(pending, pendingScoreUpdate{sc: sc})
		}
	}

	userPP := agg.ComputePPRecord()

	if len(pending) > 0 {
		p.newScores.Mutex().Lock()
		for _, up := range pending {
			if err := up.sc.AppendToUpdateBatch(ctx, p.newScores); err != nil {
				p.newScores.Mutex().Unlock()
				return score.PPRecord{}, err
			}
		}
		p.newScores.Mutex().Unlock()
		metrics.ScoreUpdated(p.mode.Tag(), len(pending))
	}

	if selectedScoreID > 0 && len(pending) > 0 {
		if err := p.detectNotableEvent(ctx, userID, firstPending, userPP.Value); err != nil {
			p.log.Error(ctx, "notable event detection failed", logger.Error(err))
		}
	}

	stmt := userStatsUpdateStatement(p.mode, p.cfg.UserPPColumnName, userID, userPP.Value, userPP.Accuracy)
	if err := p.newUsers.AppendAndCommit(ctx, stmt); err != nil {
		return score.PPRecord{}, err
	}
	metrics.UserProcessed(p.mode.Tag())

	return userPP, nil
}

// shouldUpdate implements step 2's last bullet: a per-score UPDATE is
// scheduled when the row had no stored pp, or selectedScoreID means "all"
// (0) or targets this row, and the recomputed value differs from storage
// by more than diffThreshold.
func shouldUpdate(row store.ScoreRow, selectedScoreID int64, newValue float64) bool {
	if !row.HasStoredPP {
		return true
	}
	if selectedScoreID != 0 && selectedScoreID != row.ScoreID {
		return false
	}
	diff := newValue - row.StoredPP
	if diff < 0 {
		diff = -diff
	}
	return diff > diffThreshold
}

func (p *Processor) detectNotableEvent(ctx context.Context, userID int64, firstUpdated score.Score, userTotal float64) error {
	if firstUpdated == nil || firstUpdated.TotalValue() <= userTotal/notableEventFraction {
		return nil
	}

	oldPP, ok, err := p.store.QueryUserPP(ctx, p.mode, p.cfg.UserPPColumnName, userID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	ratingChange := userTotal - oldPP
	if ratingChange < notableEventMinChange {
		return nil
	}

	if err := p.store.InsertPerformanceChange(ctx, p.mode, userID, firstUpdated.BeatmapID(), ratingChange); err != nil {
		return err
	}
	metrics.NotableEvent(p.mode.Tag())
	return nil
}

// userStatsUpdateStatement builds the CASE-guarded osu_user_stats{suffix}
// UPDATE from §6: PP is zeroed when the player hasn't played in over three
// months, and the write only takes effect when it would move the stored
// value by more than 0.01.
func userStatsUpdateStatement(mode mods.Gamemode, column string, userID int64, value, accuracy float64) string {
	return fmt.Sprintf(
		"UPDATE osu_user_stats%s SET `%s` = CASE WHEN CURDATE() > DATE_ADD(last_played, INTERVAL 3 MONTH) THEN 0 ELSE %f END, "+
			"accuracy_new = %f WHERE user_id = %d AND ABS(`%s` - %f) > 0.01",
		mode.Suffix(), column, value, accuracy, userID, column, value)
}
