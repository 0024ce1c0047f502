package repository

import "errors"

// Sentinel kinds for repository errors. Domain-level conditions use the
// lifecycle sentinels so callers can match them regardless of backend.
var (
	ErrDuplicateID   = errors.New("record id already exists")
	ErrInvalidRecord = errors.New("invalid record")
	ErrInvalidUser   = errors.New("invalid user snapshot")
)
