package memo

import "errors"

// ErrNilScorer is returned when no underlying scorer is supplied.
var ErrNilScorer = errors.New("memo: nil scorer")
