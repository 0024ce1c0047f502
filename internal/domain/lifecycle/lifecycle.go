// Package lifecycle owns the match record state machine:
// pending -> accepted | declined | expired.
package lifecycle

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/scoring"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/okian/skillswap/pkg/metrics"
)

// Operation names used in errors, logs and metrics.
const (
	OpCreate   = "create"
	OpAccept   = "accept"
	OpDecline  = "decline"
	OpExpire   = "expire"
	OpSessions = "sessions"
	OpGet      = "get"
	OpList     = "list"
	OpSweep    = "sweep"
)

// CreateRequest asks for a new pending match.
type CreateRequest struct {
	InitiatorID string            `json:"-"`
	OtherUserID string            `json:"other_user_id"`
	Skill       string            `json:"skill"`
	MatchType   model.MatchType   `json:"match_type"`
	Message     string            `json:"message,omitempty"`
	Preferences model.Preferences `json:"preferences"`
}

// Manager applies lifecycle transitions. Every transition is a single
// conditional store write, so concurrent responders cannot both win.
type Manager struct {
	store    Store
	dir      Directory
	scorer   scoring.Scorer
	notifier Notifier
	now      func() time.Time
	ttl      time.Duration
	log      logger.Logger
	newID    func() string
}

// NewManager creates a manager over the given store and directory.
func NewManager(store Store, dir Directory, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		dir:      dir,
		scorer:   scoring.NewEngine(),
		notifier: nopNotifier{},
		now:      func() time.Time { return time.Now().UTC() },
		ttl:      DefaultTTL,
		log:      logger.Nop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the pending lifetime applied to new matches.
func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) observe(op string, start time.Time, err error) {
	metrics.RecordTransition(op, Code(err))
	metrics.RecordLifecycleLatency(op, float64(time.Since(start).Microseconds())/1000.0)
}

func (m *Manager) validate(req *CreateRequest) error {
	req.InitiatorID = strings.TrimSpace(req.InitiatorID)
	req.OtherUserID = strings.TrimSpace(req.OtherUserID)
	req.Skill = strings.TrimSpace(req.Skill)
	if req.InitiatorID == "" || req.OtherUserID == "" {
		return &Error{Op: OpCreate, UserID: req.InitiatorID, Kind: ErrInvalidRequest, Err: errors.New("both user ids are required")}
	}
	if req.InitiatorID == req.OtherUserID {
		return &Error{Op: OpCreate, UserID: req.InitiatorID, Kind: ErrSelfMatch}
	}
	if req.Skill == "" {
		return &Error{Op: OpCreate, UserID: req.InitiatorID, Kind: ErrInvalidRequest, Err: errors.New("skill is required")}
	}
	mt, err := model.ParseMatchType(string(req.MatchType))
	if err != nil {
		return &Error{Op: OpCreate, UserID: req.InitiatorID, Kind: ErrInvalidRequest, Err: err}
	}
	req.MatchType = mt
	req.Preferences = req.Preferences.WithDefaults()
	switch req.Preferences.SessionType {
	case model.SessionOnline, model.SessionInPerson, model.SessionBoth:
	default:
		return &Error{Op: OpCreate, UserID: req.InitiatorID, Kind: ErrInvalidRequest,
			Err: errors.New("unknown session type " + string(req.Preferences.SessionType))}
	}
	if req.Preferences.PreferredDuration < 0 {
		return &Error{Op: OpCreate, UserID: req.InitiatorID, Kind: ErrInvalidRequest, Err: errors.New("preferred duration must not be negative")}
	}
	return nil
}

// Create scores the pair and stores a new pending match. Any existing record
// for the same unordered pair and skill blocks the request, whatever its
// status.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (rec model.MatchRecord, err error) {
	start := time.Now()
	defer func() { m.observe(OpCreate, start, err) }()

	if err := m.validate(&req); err != nil {
		return model.MatchRecord{}, err
	}

	key := model.NewPairKey(req.InitiatorID, req.OtherUserID, req.Skill)
	existing, err := m.store.FindByKey(ctx, key)
	switch {
	case err == nil:
		return model.MatchRecord{}, &Error{Op: OpCreate, MatchID: existing.ID, UserID: req.InitiatorID, Kind: ErrDuplicateMatch}
	case !errors.Is(err, ErrMatchNotFound):
		return model.MatchRecord{}, &Error{Op: OpCreate, UserID: req.InitiatorID, Err: err}
	}

	initiator, err := m.snapshot(ctx, req.InitiatorID)
	if err != nil {
		return model.MatchRecord{}, err
	}
	other, err := m.snapshot(ctx, req.OtherUserID)
	if err != nil {
		return model.MatchRecord{}, err
	}

	result := m.scorer.Score(initiator, other, req.Skill)
	now := m.now()
	rec = model.MatchRecord{
		ID:          m.newID(),
		User1ID:     req.InitiatorID,
		User2ID:     req.OtherUserID,
		Skill:       req.Skill,
		Type:        req.MatchType,
		Score:       result.Total,
		Reasons:     result.Reasons,
		Status:      model.StatusPending,
		InitiatedBy: req.InitiatorID,
		ExpiresAt:   now.Add(m.ttl),
		Message:     strings.TrimSpace(req.Message),
		Preferences: req.Preferences,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec.Canonicalize()

	if err := m.store.Create(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicateMatch) {
			return model.MatchRecord{}, &Error{Op: OpCreate, UserID: req.InitiatorID, Kind: ErrDuplicateMatch}
		}
		return model.MatchRecord{}, &Error{Op: OpCreate, MatchID: rec.ID, UserID: req.InitiatorID, Err: err}
	}

	m.log.Info(ctx, "match created",
		logger.String("match_id", rec.ID),
		logger.String("initiator", rec.InitiatedBy),
		logger.String("skill", rec.Skill),
		logger.Int("score", rec.Score))
	m.notify(ctx, model.EventMatchCreated, &rec, req.OtherUserID, req.InitiatorID)
	return rec, nil
}

func (m *Manager) snapshot(ctx context.Context, userID string) (model.UserSnapshot, error) {
	u, err := m.dir.Snapshot(ctx, userID)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, ErrUserNotFound) {
		return model.UserSnapshot{}, &Error{Op: OpCreate, UserID: userID, Kind: ErrUserNotFound}
	}
	return model.UserSnapshot{}, &Error{Op: OpCreate, UserID: userID, Err: err}
}

// Accept moves a pending match to accepted on behalf of the non-initiating
// participant.
func (m *Manager) Accept(ctx context.Context, matchID, responderID string) (model.MatchRecord, error) {
	return m.respond(ctx, OpAccept, matchID, responderID, model.StatusAccepted, model.EventMatchAccepted)
}

// Decline moves a pending match to declined. Preconditions match Accept.
func (m *Manager) Decline(ctx context.Context, matchID, responderID string) (model.MatchRecord, error) {
	return m.respond(ctx, OpDecline, matchID, responderID, model.StatusDeclined, model.EventMatchDeclined)
}

func (m *Manager) respond(ctx context.Context, op, matchID, responderID string, to model.Status, evType model.EventType) (rec model.MatchRecord, err error) {
	start := time.Now()
	defer func() { m.observe(op, start, err) }()

	rec, err = m.get(ctx, op, matchID)
	if err != nil {
		return model.MatchRecord{}, err
	}

	now := m.now()
	fail := func(kind error) (model.MatchRecord, error) {
		return model.MatchRecord{}, &Error{Op: op, MatchID: matchID, UserID: responderID, Kind: kind}
	}
	switch {
	case rec.Status != model.StatusPending:
		return fail(ErrNotPending)
	case rec.IsExpiredAt(now):
		// Only a participant's attempt writes the expiry.
		if rec.HasParticipant(responderID) {
			m.expireLazily(ctx, &rec)
		}
		return fail(ErrExpired)
	case responderID == rec.InitiatedBy:
		return fail(ErrSelfResponse)
	case !rec.HasParticipant(responderID):
		return fail(ErrNotParticipant)
	}

	updated, err := m.store.CompareAndSwapStatus(ctx, matchID, model.StatusPending, Transition{
		To:          to,
		RespondedBy: responderID,
		RespondedAt: &now,
		At:          now,
	})
	if err != nil {
		if errors.Is(err, ErrStatusConflict) {
			metrics.RecordConflict()
			m.log.Warn(ctx, "lost transition race",
				logger.String("match_id", matchID),
				logger.String("op", op),
				logger.String("current", string(updated.Status)))
			return fail(ErrNotPending)
		}
		return model.MatchRecord{}, &Error{Op: op, MatchID: matchID, UserID: responderID, Err: err}
	}

	m.log.Info(ctx, "match "+string(to),
		logger.String("match_id", matchID),
		logger.String("responder", responderID))
	m.notify(ctx, evType, &updated, updated.InitiatedBy, responderID)
	return updated, nil
}

// expireLazily records an expiry observed during a response attempt. A
// failure here does not change the caller's outcome.
func (m *Manager) expireLazily(ctx context.Context, rec *model.MatchRecord) {
	if _, _, err := m.expire(ctx, rec); err != nil && !errors.Is(err, ErrStatusConflict) {
		m.log.Warn(ctx, "lazy expiry failed", logger.String("match_id", rec.ID), logger.Error(err))
	}
}

// expire performs the pending->expired write. It reports whether this call
// made the transition.
func (m *Manager) expire(ctx context.Context, rec *model.MatchRecord) (model.MatchRecord, bool, error) {
	now := m.now()
	updated, err := m.store.CompareAndSwapStatus(ctx, rec.ID, model.StatusPending, Transition{
		To: model.StatusExpired,
		At: now,
	})
	if err != nil {
		return updated, false, err
	}
	metrics.RecordExpired(1)
	m.log.Info(ctx, "match expired", logger.String("match_id", rec.ID), logger.Time("expires_at", rec.ExpiresAt))
	m.notify(ctx, model.EventMatchExpired, &updated, updated.InitiatedBy, "")
	return updated, true, nil
}

// ExpireSweep expires the match if it is still pending and past its expiry.
// Otherwise it returns the current record unchanged. It is idempotent.
func (m *Manager) ExpireSweep(ctx context.Context, matchID string) (rec model.MatchRecord, err error) {
	start := time.Now()
	defer func() { m.observe(OpExpire, start, err) }()

	rec, err = m.get(ctx, OpExpire, matchID)
	if err != nil {
		return model.MatchRecord{}, err
	}
	if rec.Status != model.StatusPending || !rec.IsExpiredAt(m.now()) {
		return rec, nil
	}

	updated, _, err := m.expire(ctx, &rec)
	if err != nil {
		if errors.Is(err, ErrStatusConflict) {
			// A response landed first; it wins.
			return updated, nil
		}
		return model.MatchRecord{}, &Error{Op: OpExpire, MatchID: matchID, Err: err}
	}
	return updated, nil
}

// SweepExpired expires up to limit overdue pending matches and returns how
// many transitions it made.
func (m *Manager) SweepExpired(ctx context.Context, limit int) (int, error) {
	start := time.Now()
	due, err := m.store.ListExpired(ctx, m.now(), limit)
	if err != nil {
		return 0, &Error{Op: OpSweep, Err: err}
	}

	expired := 0
	for i := range due {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		_, done, err := m.expire(ctx, &due[i])
		switch {
		case err == nil && done:
			expired++
		case errors.Is(err, ErrStatusConflict):
		case err != nil:
			m.log.Error(ctx, "sweep expire failed", logger.String("match_id", due[i].ID), logger.Error(err))
		}
	}

	metrics.RecordSweep(float64(time.Since(start).Microseconds()) / 1000.0)
	if expired > 0 {
		m.log.Info(ctx, "expiry sweep finished", logger.Int("candidates", len(due)), logger.Int("expired", expired))
	}
	return expired, nil
}

// IncrementSessionCount records a completed session on an accepted match.
func (m *Manager) IncrementSessionCount(ctx context.Context, matchID string) (rec model.MatchRecord, err error) {
	start := time.Now()
	defer func() { m.observe(OpSessions, start, err) }()

	rec, err = m.get(ctx, OpSessions, matchID)
	if err != nil {
		return model.MatchRecord{}, err
	}
	if rec.Status != model.StatusAccepted {
		return model.MatchRecord{}, &Error{Op: OpSessions, MatchID: matchID, Kind: ErrNotAccepted}
	}

	updated, err := m.store.IncrementSessions(ctx, matchID, m.now())
	if err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return model.MatchRecord{}, &Error{Op: OpSessions, MatchID: matchID, Kind: ErrNotAccepted}
		}
		return model.MatchRecord{}, &Error{Op: OpSessions, MatchID: matchID, Err: err}
	}
	return updated, nil
}

// Get returns a match by id.
func (m *Manager) Get(ctx context.Context, matchID string) (model.MatchRecord, error) {
	return m.get(ctx, OpGet, matchID)
}

func (m *Manager) get(ctx context.Context, op, matchID string) (model.MatchRecord, error) {
	if strings.TrimSpace(matchID) == "" {
		return model.MatchRecord{}, &Error{Op: op, Kind: ErrInvalidRequest, Err: errors.New("match id is required")}
	}
	rec, err := m.store.Get(ctx, matchID)
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return model.MatchRecord{}, &Error{Op: op, MatchID: matchID, Kind: ErrMatchNotFound}
		}
		return model.MatchRecord{}, &Error{Op: op, MatchID: matchID, Err: err}
	}
	return rec, nil
}

// ListForUser returns the user's matches ordered by score, then newest
// first. An empty status lists all.
func (m *Manager) ListForUser(ctx context.Context, userID string, status model.Status) ([]model.MatchRecord, error) {
	recs, err := m.store.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, &Error{Op: OpList, UserID: userID, Err: err}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}

// PendingForUser returns the user's pending, unexpired matches, newest first.
func (m *Manager) PendingForUser(ctx context.Context, userID string) ([]model.MatchRecord, error) {
	recs, err := m.store.ListByUser(ctx, userID, model.StatusPending)
	if err != nil {
		return nil, &Error{Op: OpList, UserID: userID, Err: err}
	}
	now := m.now()
	out := recs[:0]
	for _, r := range recs {
		if !r.IsExpiredAt(now) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// AreMatched reports whether a and b share an accepted match, for skill
// when given or for any skill otherwise.
func (m *Manager) AreMatched(ctx context.Context, a, b, skill string) (bool, error) {
	if strings.TrimSpace(skill) != "" {
		rec, err := m.store.FindByKey(ctx, model.NewPairKey(a, b, skill))
		if errors.Is(err, ErrMatchNotFound) {
			return false, nil
		}
		if err != nil {
			return false, &Error{Op: OpGet, UserID: a, Err: err}
		}
		return rec.Status == model.StatusAccepted, nil
	}
	recs, err := m.store.ListByUser(ctx, a, model.StatusAccepted)
	if err != nil {
		return false, &Error{Op: OpList, UserID: a, Err: err}
	}
	for _, r := range recs {
		if r.Counterpart(a) == b {
			return true, nil
		}
	}
	return false, nil
}

func (m *Manager) notify(ctx context.Context, t model.EventType, rec *model.MatchRecord, recipient, actor string) {
	ev := model.Event{
		ID:          m.newID(),
		Type:        t,
		MatchID:     rec.ID,
		RecipientID: recipient,
		ActorID:     actor,
		Skill:       rec.Skill,
		Status:      rec.Status,
		OccurredAt:  m.now(),
	}
	if err := m.notifier.Notify(ctx, ev); err != nil {
		m.log.Warn(ctx, "notification not delivered",
			logger.String("match_id", rec.ID),
			logger.String("event", string(t)),
			logger.Error(err))
	}
}
