// Package memo caches compatibility scores for versioned user snapshots.
package memo

import (
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/scoring"
	"github.com/okian/skillswap/pkg/metrics"
)

// key identifies one scoring input. Versions make stale profiles miss.
type key struct {
	subject          string
	candidate        string
	skill            string
	subjectVersion   int64
	candidateVersion int64
}

// Scorer wraps another scoring.Scorer with a bounded LRU cache. Snapshots
// with Version 0 are always scored directly.
type Scorer struct {
	next  scoring.Scorer
	cache *lru.Cache[key, model.ScoreResult]
}

var _ scoring.Scorer = (*Scorer)(nil)

// New wraps next with a cache of size entries. A non-positive size disables
// caching.
func New(next scoring.Scorer, size int) (*Scorer, error) {
	if next == nil {
		return nil, ErrNilScorer
	}
	s := &Scorer{next: next}
	if size > 0 {
		c, err := lru.New[key, model.ScoreResult](size)
		if err != nil {
			return nil, fmt.Errorf("create score cache: %w", err)
		}
		s.cache = c
	}
	return s, nil
}

// Score implements scoring.Scorer.
func (s *Scorer) Score(subject, candidate model.UserSnapshot, targetSkill string) model.ScoreResult {
	if s.cache == nil || subject.Version == 0 || candidate.Version == 0 {
		metrics.RecordScoreComputed()
		return s.next.Score(subject, candidate, targetSkill)
	}

	k := key{
		subject:          subject.ID,
		candidate:        candidate.ID,
		skill:            model.NormalizeSkill(targetSkill),
		subjectVersion:   subject.Version,
		candidateVersion: candidate.Version,
	}
	if res, ok := s.cache.Get(k); ok {
		metrics.RecordCacheHit()
		return cloneResult(res)
	}

	metrics.RecordCacheMiss()
	metrics.RecordScoreComputed()
	res := s.next.Score(subject, candidate, targetSkill)
	s.cache.Add(k, cloneResult(res))
	return res
}

// Len returns the number of cached results.
func (s *Scorer) Len() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// Purge drops every cached result.
func (s *Scorer) Purge() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

// String describes the cache for logs.
func (s *Scorer) String() string {
	if s.cache == nil {
		return "memo(disabled)"
	}
	return "memo(" + strconv.Itoa(s.cache.Len()) + ")"
}

func cloneResult(r model.ScoreResult) model.ScoreResult {
	if r.Reasons == nil {
		return r
	}
	r.Reasons = append(make([]model.Reason, 0, len(r.Reasons)), r.Reasons...)
	return r
}
