// Package ranking orders a candidate pool by compatibility with a subject.
package ranking

import (
	"sort"
	"time"

	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/scoring"
	"github.com/okian/skillswap/pkg/metrics"
)

// MaxResults is the hard cap on suggestions returned by one ranking.
const MaxResults = 50

// Ranker scores candidates and returns the best ones. It holds no mutable
// state and is safe for concurrent use.
type Ranker struct {
	scorer scoring.Scorer
	limit  int
}

// New creates a ranker using the default scoring engine.
func New(opts ...Option) *Ranker {
	r := &Ranker{
		scorer: scoring.NewEngine(),
		limit:  MaxResults,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Limit returns the configured result cap.
func (r *Ranker) Limit() int { return r.limit }

// FindMatches scores every pool member against subject, drops non-positive
// totals, and returns the rest sorted by total descending. Ties keep pool
// order. The pool is not modified.
func (r *Ranker) FindMatches(subject model.UserSnapshot, pool []model.UserSnapshot, targetSkill string) []model.Suggestion {
	start := time.Now()

	out := make([]model.Suggestion, 0, min(len(pool), r.limit))
	for _, candidate := range pool {
		if candidate.ID != "" && candidate.ID == subject.ID {
			continue
		}
		res := r.scorer.Score(subject, candidate, targetSkill)
		if res.Total <= 0 {
			continue
		}
		out = append(out, model.Suggestion{Candidate: candidate, Result: res})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Result.Total > out[j].Result.Total
	})
	if len(out) > r.limit {
		out = out[:r.limit]
	}

	metrics.RecordRanking(float64(time.Since(start).Microseconds())/1000.0, len(out))
	return out
}
