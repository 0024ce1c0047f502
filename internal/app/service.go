// Package service wires the scorer, ranker and match lifecycle into the
// single facade used by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	eventqueue "github.com/okian/skillswap/internal/adapters/mq/queue"
	workerpool "github.com/okian/skillswap/internal/adapters/mq/worker"
	"github.com/okian/skillswap/internal/adapters/repository"
	"github.com/okian/skillswap/internal/domain/lifecycle"
	"github.com/okian/skillswap/internal/domain/memo"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/ranking"
	"github.com/okian/skillswap/internal/domain/scoring"
	"github.com/okian/skillswap/internal/domain/types"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/okian/skillswap/pkg/metrics"
)

// Directory reads and writes user snapshots.
type Directory interface {
	lifecycle.Directory
	repository.UserWriter
}

// Service implements the API dependencies for the matching system.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	store     lifecycle.Store
	directory Directory
	sinks     []workerpool.Sink

	// Core components
	memo       *memo.Scorer
	ranker     *ranking.Ranker
	manager    *lifecycle.Manager
	queue      *eventqueue.InMemoryQueue
	dispatcher *workerpool.Pool

	// Configuration
	ttl         time.Duration
	maxResults  int
	cacheSize   int
	queueSize   int
	workerCount int
	now         func() time.Time

	started bool
	logger  logger.Logger
}

// New constructs a Service. The dispatcher does not run until Start.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		ttl:         lifecycle.DefaultTTL,
		maxResults:  ranking.MaxResults,
		cacheSize:   10_000,
		queueSize:   10_000,
		workerCount: runtime.NumCPU(),
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.directory == nil {
		s.directory = repository.NewMemoryDirectory()
	}

	scorer, err := memo.New(scoring.NewEngine(), s.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("score memo: %w", err)
	}
	s.memo = scorer
	s.ranker = ranking.New(ranking.WithScorer(scorer), ranking.WithLimit(s.maxResults))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.dispatcher = workerpool.NewPool(s.workerCount, s.queue, s.sinks,
		workerpool.WithLogger(s.logger))
	s.manager = lifecycle.NewManager(s.store, s.directory,
		lifecycle.WithScorer(scorer),
		lifecycle.WithNotifier(s.queue),
		lifecycle.WithTTL(s.ttl),
		lifecycle.WithClock(s.now),
		lifecycle.WithLogger(s.logger),
	)
	return s, nil
}

// Start launches the notification dispatcher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.queue.IsClosed() {
		return fmt.Errorf("%w: service cannot be restarted", ErrNotStarted)
	}

	s.dispatcher.Start(ctx)
	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.Int("workers", s.dispatcher.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxResults", s.ranker.Limit()),
		logger.String("scoreCache", s.memo.String()),
		logger.Duration("matchTTL", s.ttl),
	)
	return nil
}

// Stop drains pending notifications and stops the dispatcher.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping matching service...")
	err := s.dispatcher.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "matching service stopped")
	return err
}

// Manager exposes the lifecycle manager, e.g. for the sweep scheduler.
func (s *Service) Manager() *lifecycle.Manager { return s.manager }

// UpsertUser stores a user snapshot and returns it with its new version.
func (s *Service) UpsertUser(ctx context.Context, u model.UserSnapshot) (model.UserSnapshot, error) {
	return s.directory.Upsert(ctx, u)
}

// Suggestions ranks candidates for a user. A limit of zero or above the
// configured cap uses the cap.
func (s *Service) Suggestions(ctx context.Context, userID, skill string, limit int) ([]types.Entry, error) {
	subject, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	pool, err := s.directory.Candidates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	found := s.ranker.FindMatches(subject, pool, strings.TrimSpace(skill))
	if limit > 0 && limit < len(found) {
		found = found[:limit]
	}
	return types.EntriesFrom(found), nil
}

// Score computes the directional score of candidate for user.
func (s *Service) Score(ctx context.Context, userID, candidateID, skill string) (model.ScoreResult, error) {
	subject, err := s.snapshot(ctx, userID)
	if err != nil {
		return model.ScoreResult{}, err
	}
	candidate, err := s.snapshot(ctx, candidateID)
	if err != nil {
		return model.ScoreResult{}, err
	}
	return s.memo.Score(subject, candidate, strings.TrimSpace(skill)), nil
}

func (s *Service) snapshot(ctx context.Context, userID string) (model.UserSnapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return model.UserSnapshot{}, &lifecycle.Error{Op: lifecycle.OpGet, Kind: lifecycle.ErrInvalidRequest}
	}
	u, err := s.directory.Snapshot(ctx, userID)
	if err != nil {
		return model.UserSnapshot{}, &lifecycle.Error{Op: lifecycle.OpGet, UserID: userID, Err: err}
	}
	return u, nil
}

// CreateMatch opens a pending match from the initiator to another user.
func (s *Service) CreateMatch(ctx context.Context, req lifecycle.CreateRequest) (model.MatchRecord, error) {
	return s.manager.Create(ctx, req)
}

// AcceptMatch accepts a pending match on behalf of the responder.
func (s *Service) AcceptMatch(ctx context.Context, matchID, responderID string) (model.MatchRecord, error) {
	return s.manager.Accept(ctx, matchID, responderID)
}

// DeclineMatch declines a pending match on behalf of the responder.
func (s *Service) DeclineMatch(ctx context.Context, matchID, responderID string) (model.MatchRecord, error) {
	return s.manager.Decline(ctx, matchID, responderID)
}

// ExpireMatch runs the expiry check for one match visible to the caller.
func (s *Service) ExpireMatch(ctx context.Context, matchID, callerID string) (model.MatchRecord, error) {
	if _, err := s.authorize(ctx, lifecycle.OpExpire, matchID, callerID); err != nil {
		return model.MatchRecord{}, err
	}
	return s.manager.ExpireSweep(ctx, matchID)
}

// RecordSession bumps the session count of an accepted match.
func (s *Service) RecordSession(ctx context.Context, matchID, callerID string) (model.MatchRecord, error) {
	if _, err := s.authorize(ctx, lifecycle.OpSessions, matchID, callerID); err != nil {
		return model.MatchRecord{}, err
	}
	return s.manager.IncrementSessionCount(ctx, matchID)
}

// GetMatch returns a match if the caller takes part in it.
func (s *Service) GetMatch(ctx context.Context, matchID, callerID string) (model.MatchRecord, error) {
	return s.authorize(ctx, lifecycle.OpGet, matchID, callerID)
}

func (s *Service) authorize(ctx context.Context, op, matchID, callerID string) (model.MatchRecord, error) {
	rec, err := s.manager.Get(ctx, matchID)
	if err != nil {
		return model.MatchRecord{}, err
	}
	if !rec.HasParticipant(callerID) {
		return model.MatchRecord{}, &lifecycle.Error{Op: op, MatchID: matchID, UserID: callerID, Kind: lifecycle.ErrNotParticipant}
	}
	return rec, nil
}

// ListMatches returns the user's matches, optionally filtered by status.
func (s *Service) ListMatches(ctx context.Context, userID string, status model.Status) ([]model.MatchRecord, error) {
	return s.manager.ListForUser(ctx, userID, status)
}

// PendingMatches returns the user's open requests on either side.
func (s *Service) PendingMatches(ctx context.Context, userID string) ([]model.MatchRecord, error) {
	return s.manager.PendingForUser(ctx, userID)
}

// AreMatched reports whether two users share an accepted match.
func (s *Service) AreMatched(ctx context.Context, a, b, skill string) (bool, error) {
	return s.manager.AreMatched(ctx, a, b, skill)
}

// SweepExpired expires up to limit overdue pending matches.
func (s *Service) SweepExpired(ctx context.Context, limit int) (int, error) {
	return s.manager.SweepExpired(ctx, limit)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	queueLen := s.queue.Len(ctx)
	stats := map[string]interface{}{
		"started":     started,
		"workerCount": s.dispatcher.Size(),
		"queueSize":   s.queueSize,
		"queueLength": queueLen,
		"maxResults":  s.ranker.Limit(),
		"scoreCache":  s.memo.Len(),
		"matchTTL":    s.ttl.String(),
	}

	if counter, ok := s.store.(repository.Counter); ok {
		counts, err := counter.CountByStatus(ctx)
		if err != nil {
			s.logger.Warn(ctx, "count matches failed", logger.Error(err))
		} else {
			byStatus := make(map[string]int, len(counts))
			for st, n := range counts {
				byStatus[string(st)] = n
			}
			stats["matches"] = byStatus
		}
	}

	metrics.UpdateQueueSize(queueLen)
	return stats
}
