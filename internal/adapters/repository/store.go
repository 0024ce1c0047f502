// Package repository implements match and user persistence in memory and on
// PostgreSQL.
package repository

import (
	"context"

	"github.com/okian/skillswap/internal/domain/lifecycle"
	"github.com/okian/skillswap/internal/domain/model"
)

// UserWriter stores user snapshots for the directory. Each write bumps the
// snapshot version so cached scores for the user go stale.
type UserWriter interface {
	Upsert(ctx context.Context, u model.UserSnapshot) (model.UserSnapshot, error)
}

// Counter reports how many matches exist in each status.
type Counter interface {
	CountByStatus(ctx context.Context) (map[model.Status]int, error)
}

var (
	_ lifecycle.Store     = (*MemoryStore)(nil)
	_ lifecycle.Store     = (*PostgresStore)(nil)
	_ lifecycle.Directory = (*MemoryDirectory)(nil)
	_ lifecycle.Directory = (*PostgresDirectory)(nil)
	_ UserWriter          = (*MemoryDirectory)(nil)
	_ UserWriter          = (*PostgresDirectory)(nil)
	_ Counter             = (*MemoryStore)(nil)
	_ Counter             = (*PostgresStore)(nil)
)
