package ranking

import "github.com/okian/skillswap/internal/domain/scoring"

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithLimit caps the number of suggestions. Values outside 1..MaxResults
// are ignored.
func WithLimit(limit int) Option {
	return func(r *Ranker) {
		if limit > 0 && limit <= MaxResults {
			r.limit = limit
		}
	}
}

// WithScorer replaces the scoring engine, for example with a memoizing one.
func WithScorer(s scoring.Scorer) Option {
	return func(r *Ranker) {
		if s != nil {
			r.scorer = s
		}
	}
}
