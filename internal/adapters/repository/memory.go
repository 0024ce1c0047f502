package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/skillswap/internal/domain/lifecycle"
	"github.com/okian/skillswap/internal/domain/model"
)

// MemoryStore keeps match records in process memory. Each conditional write
// runs under one mutex, which makes it the compare-and-set point.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*model.MatchRecord
	byKey map[model.PairKey]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]*model.MatchRecord),
		byKey: make(map[model.PairKey]string),
	}
}

// Create inserts rec. The pair is canonicalized before the uniqueness check.
func (s *MemoryStore) Create(_ context.Context, rec model.MatchRecord) error {
	if rec.ID == "" || rec.User1ID == "" || rec.User2ID == "" {
		return fmt.Errorf("%w: id and both users are required", ErrInvalidRecord)
	}
	rec.Canonicalize()
	key := rec.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byKey[key]; ok {
		return lifecycle.ErrDuplicateMatch
	}
	if _, ok := s.byID[rec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	c := rec.Clone()
	s.byID[rec.ID] = &c
	s.byKey[key] = rec.ID
	return nil
}

// Get returns a copy of the record with the given id.
func (s *MemoryStore) Get(_ context.Context, id string) (model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return model.MatchRecord{}, lifecycle.ErrMatchNotFound
	}
	return rec.Clone(), nil
}

// FindByKey returns the record for a canonical pair and skill.
func (s *MemoryStore) FindByKey(_ context.Context, key model.PairKey) (model.MatchRecord, error) {
	key = model.NewPairKey(key.User1ID, key.User2ID, key.Skill)
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[key]
	if !ok {
		return model.MatchRecord{}, lifecycle.ErrMatchNotFound
	}
	return s.byID[id].Clone(), nil
}

// CompareAndSwapStatus applies t when the stored status equals expected.
func (s *MemoryStore) CompareAndSwapStatus(_ context.Context, id string, expected model.Status, t lifecycle.Transition) (model.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return model.MatchRecord{}, lifecycle.ErrMatchNotFound
	}
	if rec.Status != expected {
		return rec.Clone(), lifecycle.ErrStatusConflict
	}
	rec.Status = t.To
	if t.RespondedBy != "" {
		rec.RespondedBy = t.RespondedBy
	}
	if t.RespondedAt != nil {
		at := *t.RespondedAt
		rec.RespondedAt = &at
	}
	rec.UpdatedAt = t.At
	return rec.Clone(), nil
}

// IncrementSessions bumps the session counter of an accepted record.
func (s *MemoryStore) IncrementSessions(_ context.Context, id string, at time.Time) (model.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return model.MatchRecord{}, lifecycle.ErrMatchNotFound
	}
	if rec.Status != model.StatusAccepted {
		return rec.Clone(), lifecycle.ErrStatusConflict
	}
	rec.SessionsCreated++
	rec.LastSessionAt = &at
	rec.UpdatedAt = at
	return rec.Clone(), nil
}

// ListByUser returns the user's records ordered by score, then newest first.
func (s *MemoryStore) ListByUser(_ context.Context, userID string, status model.Status) ([]model.MatchRecord, error) {
	s.mu.RLock()
	out := make([]model.MatchRecord, 0)
	for _, rec := range s.byID {
		if !rec.HasParticipant(userID) {
			continue
		}
		if status != "" && rec.Status != status {
			continue
		}
		out = append(out, rec.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListExpired returns pending records whose expiry is before now, oldest
// expiry first. A non-positive limit returns all of them.
func (s *MemoryStore) ListExpired(_ context.Context, now time.Time, limit int) ([]model.MatchRecord, error) {
	s.mu.RLock()
	out := make([]model.MatchRecord, 0)
	for _, rec := range s.byID {
		if rec.Status == model.StatusPending && rec.IsExpiredAt(now) {
			out = append(out, rec.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ExpiresAt.Before(out[j].ExpiresAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByStatus implements Counter.
func (s *MemoryStore) CountByStatus(_ context.Context) (map[model.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[model.Status]int, 4)
	for _, rec := range s.byID {
		counts[rec.Status]++
	}
	return counts, nil
}

// MemoryDirectory is an in-process user directory.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]model.UserSnapshot
	order []string
}

// NewMemoryDirectory creates a directory seeded with users.
func NewMemoryDirectory(users ...model.UserSnapshot) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[string]model.UserSnapshot)}
	for _, u := range users {
		_, _ = d.Upsert(context.Background(), u)
	}
	return d
}

// Upsert stores u and increments its version.
func (d *MemoryDirectory) Upsert(_ context.Context, u model.UserSnapshot) (model.UserSnapshot, error) {
	if u.ID == "" {
		return model.UserSnapshot{}, fmt.Errorf("%w: id is required", ErrInvalidUser)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.users[u.ID]
	if !ok {
		d.order = append(d.order, u.ID)
	}
	u.Version = max(prev.Version, u.Version) + 1
	d.users[u.ID] = u
	return u, nil
}

// Snapshot implements lifecycle.Directory.
func (d *MemoryDirectory) Snapshot(_ context.Context, userID string) (model.UserSnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	if !ok {
		return model.UserSnapshot{}, lifecycle.ErrUserNotFound
	}
	return u, nil
}

// Candidates returns active, verified users in insertion order.
func (d *MemoryDirectory) Candidates(_ context.Context, excludeID string) ([]model.UserSnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.UserSnapshot, 0, len(d.order))
	for _, id := range d.order {
		u := d.users[id]
		if id == excludeID || !u.Active || !u.Verified {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
