// Package notify delivers match lifecycle events to users.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/pkg/logger"
)

// Message is the envelope pushed to clients.
type Message struct {
	Type  model.EventType `json:"type"`
	Event model.Event     `json:"data"`
}

func encode(e model.Event) ([]byte, error) { //nolint:gocritic // hugeParam
	if e.RecipientID == "" {
		return nil, ErrNoRecipient
	}
	data, err := json.Marshal(Message{Type: e.Type, Event: e})
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	return data, nil
}

// LogSink writes every event to a logger.
type LogSink struct {
	log logger.Logger
}

// NewLogSink creates a log sink.
func NewLogSink(log logger.Logger) *LogSink {
	if log == nil {
		log = logger.Nop()
	}
	return &LogSink{log: log.Named("notify")}
}

// Name implements worker.Sink.
func (s *LogSink) Name() string { return "log" }

// Deliver implements worker.Sink.
func (s *LogSink) Deliver(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam
	if e.RecipientID == "" {
		return ErrNoRecipient
	}
	s.log.Info(ctx, "match notification",
		logger.String("event_id", e.ID),
		logger.String("type", string(e.Type)),
		logger.String("match_id", e.MatchID),
		logger.String("recipient", e.RecipientID),
		logger.String("actor", e.ActorID),
		logger.String("status", string(e.Status)),
	)
	return nil
}
