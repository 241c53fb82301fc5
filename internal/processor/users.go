package processor

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ppy/osu-performance/internal/score"
	"github.com/ppy/osu-performance/pkg/logger"
)

type processedUser struct {
	userID int64
	pp     score.PPRecord
}

// ProcessUsers recomputes ratings for an explicit list of identifiers and
// logs a leaderboard summary, per SUPPLEMENTED FEATURES #2. Each identifier
// is either a numeric user id or a name; name lookup is not implemented
// upstream either (SUPPLEMENTED FEATURES #5), so a non-numeric entry is
// logged and skipped without being processed.
func (p *Processor) ProcessUsers(ctx context.Context, idsOrNames []string) error {
	var processed []processedUser

	for _, raw := range idsOrNames {
		userID, ok := parseUserIdentifier(raw)
		if !ok {
			p.log.Warn(ctx, "name-based user lookup is not implemented, skipping",
				logger.String("identifier", raw))
			continue
		}

		pp, err := p.ProcessSingleUser(ctx, 0, userID)
		if err != nil {
			p.log.Error(ctx, "failed to process user",
				logger.Int("user_id", int(userID)), logger.Error(err))
			continue
		}
		processed = append(processed, processedUser{userID: userID, pp: pp})
	}

	p.logLeaderboardSummary(ctx, processed)
	return nil
}

// parseUserIdentifier resolves a CLI-supplied identifier to a numeric user
// id. A bare non-negative integer is taken as a user id directly; anything
// else is treated as a name, which this processor cannot resolve.
func parseUserIdentifier(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// logLeaderboardSummary reproduces the original's post-run table: processed
// users sorted by PP value descending, ties broken by user id descending.
func (p *Processor) logLeaderboardSummary(ctx context.Context, processed []processedUser) {
	if len(processed) == 0 {
		return
	}

	sort.Slice(processed, func(i, j int) bool {
		if processed[i].pp.Value != processed[j].pp.Value {
			return processed[i].pp.Value > processed[j].pp.Value
		}
		return processed[i].userID > processed[j].userID
	})

	var b strings.Builder
	b.WriteString(fmt.Sprintf("leaderboard summary (%s, %d users)\n", p.mode.Name(), len(processed)))
	b.WriteString(fmt.Sprintf("%-6s %-12s %-10s %-10s\n", "rank", "user_id", "pp", "accuracy"))
	for i, u := range processed {
		b.WriteString(fmt.Sprintf("%-6d %-12d %-10.2f %-10.4f\n", i+1, u.userID, u.pp.Value, u.pp.Accuracy))
	}

	p.log.Info(ctx, strings.TrimRight(b.String(), "\n"))
}
