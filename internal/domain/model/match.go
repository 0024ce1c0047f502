package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a MatchRecord.
type Status string

// Match statuses. Pending is the only non-terminal state.
const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusAccepted, StatusDeclined, StatusExpired:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusDeclined || s == StatusExpired
}

// MatchType distinguishes a two-way exchange from one-way mentorship.
type MatchType string

// Match types.
const (
	MatchSkillExchange MatchType = "skill-exchange"
	MatchMentorship    MatchType = "mentorship"
)

// ParseMatchType validates a match type, defaulting empty input to
// skill-exchange.
func ParseMatchType(s string) (MatchType, error) {
	switch mt := MatchType(s); mt {
	case "":
		return MatchSkillExchange, nil
	case MatchSkillExchange, MatchMentorship:
		return mt, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMatchType, s)
}

// SessionType is where the matched users prefer to meet.
type SessionType string

// Session types.
const (
	SessionOnline   SessionType = "online"
	SessionInPerson SessionType = "in-person"
	SessionBoth     SessionType = "both"
)

// Preferences are optional scheduling hints attached to a match.
type Preferences struct {
	PreferredTime     string      `json:"preferred_time,omitempty"`
	PreferredDuration int         `json:"preferred_duration,omitempty"` // minutes
	SessionType       SessionType `json:"session_type,omitempty"`
}

// WithDefaults fills unset fields.
func (p Preferences) WithDefaults() Preferences {
	if p.SessionType == "" {
		p.SessionType = SessionBoth
	}
	return p
}

// PairKey identifies a match by unordered user pair and skill.
type PairKey struct {
	User1ID string
	User2ID string
	Skill   string
}

// NewPairKey canonicalizes (a, b, skill): the lower id goes first and the
// skill is normalized, so {A,B} and {B,A} produce the same key.
func NewPairKey(a, b, skill string) PairKey {
	u1, u2 := Canonicalize(a, b)
	return PairKey{User1ID: u1, User2ID: u2, Skill: NormalizeSkill(skill)}
}

// Canonicalize orders two user ids lexicographically.
func Canonicalize(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// String renders the key for logs and cache keys.
func (k PairKey) String() string {
	return k.User1ID + ":" + k.User2ID + ":" + k.Skill
}

// MatchRecord is a persisted, pair-canonicalized pairing tracked through the
// request/response lifecycle.
type MatchRecord struct {
	ID      string    `json:"id"`
	User1ID string    `json:"user1_id"`
	User2ID string    `json:"user2_id"`
	Skill   string    `json:"skill"`
	Type    MatchType `json:"match_type"`

	Score   int      `json:"score"`
	Reasons []Reason `json:"reasons"`

	Status      Status     `json:"status"`
	InitiatedBy string     `json:"initiated_by"`
	RespondedBy string     `json:"responded_by,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`

	SessionsCreated int        `json:"sessions_created"`
	LastSessionAt   *time.Time `json:"last_session_at,omitempty"`

	Message     string      `json:"message,omitempty"`
	Preferences Preferences `json:"preferences"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the canonical uniqueness key of the record.
func (m *MatchRecord) Key() PairKey {
	return NewPairKey(m.User1ID, m.User2ID, m.Skill)
}

// Canonicalize swaps the participants so User1ID < User2ID.
func (m *MatchRecord) Canonicalize() {
	m.User1ID, m.User2ID = Canonicalize(m.User1ID, m.User2ID)
}

// HasParticipant reports whether userID is one of the two stored parties.
func (m *MatchRecord) HasParticipant(userID string) bool {
	return userID != "" && (m.User1ID == userID || m.User2ID == userID)
}

// Counterpart returns the other participant, or "" if userID is not a party.
func (m *MatchRecord) Counterpart(userID string) string {
	switch userID {
	case m.User1ID:
		return m.User2ID
	case m.User2ID:
		return m.User1ID
	}
	return ""
}

// IsExpiredAt reports whether the expiry has strictly passed at now.
func (m *MatchRecord) IsExpiredAt(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// Clone returns a deep copy so callers never share mutable state with a store.
func (m *MatchRecord) Clone() MatchRecord {
	c := *m
	if m.Reasons != nil {
		c.Reasons = append([]Reason(nil), m.Reasons...)
	}
	if m.RespondedAt != nil {
		t := *m.RespondedAt
		c.RespondedAt = &t
	}
	if m.LastSessionAt != nil {
		t := *m.LastSessionAt
		c.LastSessionAt = &t
	}
	return c
}
