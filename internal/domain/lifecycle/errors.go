package lifecycle

import (
	"errors"
	"strings"
)

// Sentinel kinds for lifecycle errors. Match them with errors.Is.
var (
	ErrDuplicateMatch = errors.New("a match already exists for this pair and skill")
	ErrNotPending     = errors.New("match is not pending")
	ErrExpired        = errors.New("match has expired")
	ErrSelfResponse   = errors.New("initiator cannot respond to own request")
	ErrNotParticipant = errors.New("user is not a participant of this match")
	ErrNotAccepted    = errors.New("match is not accepted")
	ErrSelfMatch      = errors.New("cannot create a match with oneself")
	ErrInvalidRequest = errors.New("invalid match request")
	ErrMatchNotFound  = errors.New("match not found")
	ErrUserNotFound   = errors.New("user not found")

	// ErrStatusConflict is returned by a Store when a conditional write
	// finds a status other than the expected one.
	ErrStatusConflict = errors.New("status changed concurrently")
)

// Error describes a failed lifecycle operation. Kind is one of the
// sentinels above; Err carries an optional underlying cause.
type Error struct {
	Op      string
	MatchID string
	UserID  string
	Kind    error
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("lifecycle ")
	b.WriteString(e.Op)
	if e.MatchID != "" {
		b.WriteString(" match=")
		b.WriteString(e.MatchID)
	}
	if e.UserID != "" {
		b.WriteString(" user=")
		b.WriteString(e.UserID)
	}
	b.WriteString(": ")
	switch {
	case e.Kind != nil && e.Err != nil:
		b.WriteString(e.Kind.Error())
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Kind != nil:
		b.WriteString(e.Kind.Error())
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

var codes = []struct {
	kind error
	code string
}{
	{ErrDuplicateMatch, "duplicate_match"},
	{ErrNotPending, "not_pending"},
	{ErrExpired, "expired"},
	{ErrSelfResponse, "self_response"},
	{ErrNotParticipant, "not_participant"},
	{ErrNotAccepted, "not_accepted"},
	{ErrSelfMatch, "self_match"},
	{ErrInvalidRequest, "invalid_request"},
	{ErrMatchNotFound, "match_not_found"},
	{ErrUserNotFound, "user_not_found"},
}

// Code returns a stable machine-readable code for err: "ok" for nil,
// "internal" for anything that is not a lifecycle kind.
func Code(err error) string {
	if err == nil {
		return "ok"
	}
	for _, c := range codes {
		if errors.Is(err, c.kind) {
			return c.code
		}
	}
	return "internal"
}
