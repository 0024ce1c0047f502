package lifecycle

import (
	"context"
	"time"

	"github.com/okian/skillswap/internal/domain/model"
)

// Directory resolves read-only user snapshots. Implementations never expose
// credentials.
type Directory interface {
	// Snapshot returns ErrUserNotFound for unknown ids.
	Snapshot(ctx context.Context, userID string) (model.UserSnapshot, error)
	// Candidates returns active, verified users other than excludeID.
	Candidates(ctx context.Context, excludeID string) ([]model.UserSnapshot, error)
}

// Transition is the set of fields written together by a status change.
type Transition struct {
	To          model.Status
	RespondedBy string
	RespondedAt *time.Time
	At          time.Time
}

// Store persists match records.
//
// Create returns ErrDuplicateMatch when a record with the same canonical key
// exists. Get and FindByKey return ErrMatchNotFound. CompareAndSwapStatus
// applies t only if the stored status equals expected, otherwise it returns
// ErrStatusConflict together with the current record. IncrementSessions
// only touches accepted records and returns ErrStatusConflict otherwise.
type Store interface {
	Create(ctx context.Context, rec model.MatchRecord) error
	Get(ctx context.Context, id string) (model.MatchRecord, error)
	FindByKey(ctx context.Context, key model.PairKey) (model.MatchRecord, error)
	CompareAndSwapStatus(ctx context.Context, id string, expected model.Status, t Transition) (model.MatchRecord, error)
	IncrementSessions(ctx context.Context, id string, at time.Time) (model.MatchRecord, error)
	// ListByUser returns the user's records, optionally filtered by status
	// ("" means all).
	ListByUser(ctx context.Context, userID string, status model.Status) ([]model.MatchRecord, error)
	// ListExpired returns up to limit pending records whose expiry is before now.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]model.MatchRecord, error)
}

// Notifier receives events after a transition has been committed.
type Notifier interface {
	Notify(ctx context.Context, ev model.Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev model.Event) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, ev model.Event) error { return f(ctx, ev) }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, model.Event) error { return nil }
