package api

import (
	"errors"
	"net/http"

	"github.com/okian/skillswap/internal/domain/lifecycle"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrMissingCaller = errors.New("missing " + CallerHeader + " header")
	ErrForeignUser   = errors.New("caller may only read its own suggestions")
)

// statusByCode maps lifecycle error codes to HTTP statuses.
var statusByCode = map[string]int{
	"duplicate_match": http.StatusConflict,
	"not_pending":     http.StatusConflict,
	"not_accepted":    http.StatusConflict,
	"expired":         http.StatusGone,
	"self_response":   http.StatusForbidden,
	"not_participant": http.StatusForbidden,
	"self_match":      http.StatusBadRequest,
	"invalid_request": http.StatusBadRequest,
	"match_not_found": http.StatusNotFound,
	"user_not_found":  http.StatusNotFound,
}

// writeDomainError translates a service error into a JSON error response.
func writeDomainError(w http.ResponseWriter, err error) {
	code := lifecycle.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", errors.New(http.StatusText(http.StatusInternalServerError)))
		return
	}
	writeError(w, status, code, err)
}
