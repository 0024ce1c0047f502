package config

import "errors"

// ErrLoadConfig wraps file, env and decode failures; ErrInvalidConfig wraps
// values rejected by Validate.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
