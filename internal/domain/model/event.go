package model

import "time"

// EventType names a lifecycle notification.
type EventType string

// Notification event types.
const (
	EventMatchCreated  EventType = "match.created"
	EventMatchAccepted EventType = "match.accepted"
	EventMatchDeclined EventType = "match.declined"
	EventMatchExpired  EventType = "match.expired"
)

// Event tells one user that a match changed state. Events are emitted only
// after the change has been committed.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	MatchID     string    `json:"match_id"`
	RecipientID string    `json:"recipient_id"`
	ActorID     string    `json:"actor_id,omitempty"`
	Skill       string    `json:"skill"`
	Status      Status    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}
