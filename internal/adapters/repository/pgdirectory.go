package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/skillswap/internal/domain/lifecycle"
	"github.com/okian/skillswap/internal/domain/model"
)

const userColumns = `id, location, offered_skills, desired_skills, availability, stats, version, is_active, is_verified`

// PostgresDirectory reads user snapshots from the users table. Only the
// columns needed for matching are selected.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory wraps an open pool.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

func scanUser(row rowScanner) (model.UserSnapshot, error) {
	var u model.UserSnapshot
	var offered, desired, availability, stats []byte
	if err := row.Scan(&u.ID, &u.Location, &offered, &desired, &availability, &stats, &u.Version, &u.Active, &u.Verified); err != nil {
		return model.UserSnapshot{}, err
	}
	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{offered, &u.OfferedSkills},
		{desired, &u.DesiredSkills},
		{availability, &u.Availability},
		{stats, &u.Stats},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return model.UserSnapshot{}, fmt.Errorf("decode user %s: %w", u.ID, err)
		}
	}
	return u, nil
}

// Snapshot implements lifecycle.Directory.
func (d *PostgresDirectory) Snapshot(ctx context.Context, userID string) (model.UserSnapshot, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(d.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.UserSnapshot{}, lifecycle.ErrUserNotFound
	}
	if err != nil {
		return model.UserSnapshot{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Candidates returns active, verified users other than excludeID.
func (d *PostgresDirectory) Candidates(ctx context.Context, excludeID string) ([]model.UserSnapshot, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_active AND is_verified AND id <> $1 ORDER BY id`
	rows, err := d.pool.Query(ctx, query, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	out := make([]model.UserSnapshot, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces a user and bumps its version.
func (d *PostgresDirectory) Upsert(ctx context.Context, u model.UserSnapshot) (model.UserSnapshot, error) {
	if u.ID == "" {
		return model.UserSnapshot{}, fmt.Errorf("%w: id is required", ErrInvalidUser)
	}
	encoded := make([]string, 0, 4)
	for _, v := range []any{nonNil(u.OfferedSkills), nonNil(u.DesiredSkills), u.Availability, u.Stats} {
		b, err := json.Marshal(v)
		if err != nil {
			return model.UserSnapshot{}, fmt.Errorf("encode user %s: %w", u.ID, err)
		}
		encoded = append(encoded, string(b))
	}

	query := `
		INSERT INTO users (id, location, offered_skills, desired_skills, availability, stats, is_active, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			location = EXCLUDED.location,
			offered_skills = EXCLUDED.offered_skills,
			desired_skills = EXCLUDED.desired_skills,
			availability = EXCLUDED.availability,
			stats = EXCLUDED.stats,
			is_active = EXCLUDED.is_active,
			is_verified = EXCLUDED.is_verified,
			version = users.version + 1,
			updated_at = now()
		RETURNING version`

	err := d.pool.QueryRow(ctx, query, u.ID, u.Location, encoded[0], encoded[1], encoded[2], encoded[3], u.Active, u.Verified).
		Scan(&u.Version)
	if err != nil {
		return model.UserSnapshot{}, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}

// nonNil keeps empty skill lists encoded as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
