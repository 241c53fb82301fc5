// Package user implements the per-user PP aggregator (Component F): a
// weighted sum of a player's individual score PP records into one overall
// rating.
package user

import (
	"sort"

	"github.com/ppy/osu-performance/internal/score"
)

// decay is the per-rank weight applied to sorted PP records: 0.95^i.
const decay = 0.95

// Aggregator holds one user's PP records in insertion order until
// ComputePPRecord finalizes them into a single summary record.
type Aggregator struct {
	UserID  int64
	records []score.PPRecord
}

// New creates an aggregator for userID with no records yet.
func New(userID int64) *Aggregator {
	return &Aggregator{UserID: userID}
}

// Add appends one score's PP record, in whatever order scores are
// evaluated.
func (a *Aggregator) Add(r score.PPRecord) { a.records = append(a.records, r) }

// Len reports how many PP records have been added.
func (a *Aggregator) Len() int { return len(a.records) }

// ComputePPRecord sorts the held records by value descending, then returns
// the weighted-sum value and weighted-average accuracy:
//
//	Value    = Σ PPᵢ · 0.95^i
//	Accuracy = (Σ Accᵢ · 0.95^i) / (Σ 0.95^i)
func (a *Aggregator) ComputePPRecord() score.PPRecord {
	if len(a.records) == 0 {
		return score.PPRecord{}
	}

	sorted := make([]score.PPRecord, len(a.records))
	copy(sorted, a.records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })

	var value, weightedAcc, weightSum float64
	weight := 1.0
	for _, r := range sorted {
		value += r.Value * weight
		weightedAcc += r.Accuracy * weight
		weightSum += weight
		weight *= decay
	}

	accuracy := 0.0
	if weightSum > 0 {
		accuracy = weightedAcc / weightSum
	}

	return score.PPRecord{Value: value, Accuracy: accuracy}
}
