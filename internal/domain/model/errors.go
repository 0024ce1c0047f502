package model

import "errors"

// Sentinel kinds for model validation errors.
var (
	ErrInvalidTime      = errors.New("invalid time of day")
	ErrInvalidMatchType = errors.New("invalid match type")
	ErrInvalidStatus    = errors.New("invalid match status")
)
