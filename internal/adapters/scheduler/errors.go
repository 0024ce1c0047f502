package scheduler

import "errors"

// ErrInvalidPayload is returned for sweep tasks that cannot be decoded.
var ErrInvalidPayload = errors.New("invalid sweep task payload")
