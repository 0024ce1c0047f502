package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/skillswap/internal/domain/lifecycle"
	"github.com/okian/skillswap/internal/domain/model"
)

const (
	uniqueViolation = "23505"
	pairSkillIndex  = "matches_pair_skill_uniq"
	matchColumns    = `id, user1_id, user2_id, skill, match_type, score, reasons, status, initiated_by,
		responded_by, responded_at, expires_at, sessions_created, last_session_at, message, preferences,
		created_at, updated_at`
)

// PostgresStore persists match records in PostgreSQL. Status transitions are
// single conditional UPDATE statements.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (model.MatchRecord, error) {
	var (
		rec         model.MatchRecord
		matchType   string
		status      string
		reasons     []string
		preferences []byte
	)
	err := row.Scan(
		&rec.ID, &rec.User1ID, &rec.User2ID, &rec.Skill, &matchType, &rec.Score, &reasons, &status,
		&rec.InitiatedBy, &rec.RespondedBy, &rec.RespondedAt, &rec.ExpiresAt, &rec.SessionsCreated,
		&rec.LastSessionAt, &rec.Message, &preferences, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return model.MatchRecord{}, err
	}
	rec.Type = model.MatchType(matchType)
	rec.Status = model.Status(status)
	rec.Reasons = make([]model.Reason, len(reasons))
	for i, r := range reasons {
		rec.Reasons[i] = model.Reason(r)
	}
	if len(preferences) > 0 {
		if err := json.Unmarshal(preferences, &rec.Preferences); err != nil {
			return model.MatchRecord{}, fmt.Errorf("decode preferences: %w", err)
		}
	}
	return rec, nil
}

func collectMatches(rows pgx.Rows) ([]model.MatchRecord, error) {
	defer rows.Close()
	out := make([]model.MatchRecord, 0)
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Create inserts rec. A unique violation on the pair/skill index maps to
// lifecycle.ErrDuplicateMatch.
func (s *PostgresStore) Create(ctx context.Context, rec model.MatchRecord) error {
	if rec.ID == "" || rec.User1ID == "" || rec.User2ID == "" {
		return fmt.Errorf("%w: id and both users are required", ErrInvalidRecord)
	}
	rec.Canonicalize()
	prefs, err := json.Marshal(rec.Preferences)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	reasons := make([]string, len(rec.Reasons))
	for i, r := range rec.Reasons {
		reasons[i] = string(r)
	}

	query := `
		INSERT INTO matches (id, user1_id, user2_id, skill, skill_key, match_type, score, reasons, status,
			initiated_by, responded_by, responded_at, expires_at, sessions_created, last_session_at, message,
			preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err = s.pool.Exec(ctx, query,
		rec.ID, rec.User1ID, rec.User2ID, rec.Skill, model.NormalizeSkill(rec.Skill), string(rec.Type),
		rec.Score, reasons, string(rec.Status), rec.InitiatedBy, rec.RespondedBy, rec.RespondedAt,
		rec.ExpiresAt, rec.SessionsCreated, rec.LastSessionAt, rec.Message, string(prefs),
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if pgErr.ConstraintName == pairSkillIndex {
				return lifecycle.ErrDuplicateMatch
			}
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// Get returns the record with the given id.
func (s *PostgresStore) Get(ctx context.Context, id string) (model.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	rec, err := scanMatch(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.MatchRecord{}, lifecycle.ErrMatchNotFound
	}
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("get match: %w", err)
	}
	return rec, nil
}

// FindByKey returns the record for a pair and skill.
func (s *PostgresStore) FindByKey(ctx context.Context, key model.PairKey) (model.MatchRecord, error) {
	key = model.NewPairKey(key.User1ID, key.User2ID, key.Skill)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE user1_id = $1 AND user2_id = $2 AND skill_key = $3`
	rec, err := scanMatch(s.pool.QueryRow(ctx, query, key.User1ID, key.User2ID, key.Skill))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.MatchRecord{}, lifecycle.ErrMatchNotFound
	}
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("find match: %w", err)
	}
	return rec, nil
}

// CompareAndSwapStatus applies t only while the row still has the expected
// status.
func (s *PostgresStore) CompareAndSwapStatus(ctx context.Context, id string, expected model.Status, t lifecycle.Transition) (model.MatchRecord, error) {
	query := `
		UPDATE matches
		SET status = $3,
			responded_by = CASE WHEN $4::text <> '' THEN $4::text ELSE responded_by END,
			responded_at = COALESCE($5::timestamptz, responded_at),
			updated_at = $6
		WHERE id = $1 AND status = $2
		RETURNING ` + matchColumns

	rec, err := scanMatch(s.pool.QueryRow(ctx, query, id, string(expected), string(t.To), t.RespondedBy, t.RespondedAt, t.At))
	if errors.Is(err, pgx.ErrNoRows) {
		return s.conflict(ctx, id)
	}
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("update match status: %w", err)
	}
	return rec, nil
}

// conflict distinguishes a missing row from a status mismatch after a
// conditional update matched nothing.
func (s *PostgresStore) conflict(ctx context.Context, id string) (model.MatchRecord, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return model.MatchRecord{}, err
	}
	return current, lifecycle.ErrStatusConflict
}

// IncrementSessions bumps the session counter of an accepted record.
func (s *PostgresStore) IncrementSessions(ctx context.Context, id string, at time.Time) (model.MatchRecord, error) {
	query := `
		UPDATE matches
		SET sessions_created = sessions_created + 1, last_session_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'accepted'
		RETURNING ` + matchColumns

	rec, err := scanMatch(s.pool.QueryRow(ctx, query, id, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return s.conflict(ctx, id)
	}
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("increment sessions: %w", err)
	}
	return rec, nil
}

// ListByUser returns the user's records ordered by score, then newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string, status model.Status) ([]model.MatchRecord, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE (user1_id = $1 OR user2_id = $1) AND ($2::text = '' OR status = $2::text)
		ORDER BY score DESC, created_at DESC, id`

	rows, err := s.pool.Query(ctx, query, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return collectMatches(rows)
}

// ListExpired returns overdue pending records, oldest expiry first.
func (s *PostgresStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.MatchRecord, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = 'pending' AND expires_at < $1
		ORDER BY expires_at, id
		LIMIT $2::bigint`

	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := s.pool.Query(ctx, query, now, lim)
	if err != nil {
		return nil, fmt.Errorf("list expired matches: %w", err)
	}
	return collectMatches(rows)
}

// CountByStatus implements Counter.
func (s *PostgresStore) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, count(*) FROM matches GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count matches: %w", err)
	}
	defer rows.Close()
	counts := make(map[model.Status]int, 4)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[model.Status(status)] = n
	}
	return counts, rows.Err()
}
