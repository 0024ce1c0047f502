// Package scheduler triggers periodic bulk expiry sweeps of pending matches.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/okian/skillswap/pkg/logger"
)

// TypeExpireSweep is the asynq task type for a bulk expiry sweep.
const TypeExpireSweep = "match:expire_sweep"

// Sweeper expires pending matches whose deadline has passed.
type Sweeper interface {
	SweepExpired(ctx context.Context, limit int) (int, error)
}

type sweepPayload struct {
	Limit int `json:"limit"`
}

// NewSweepTask builds a sweep task.
func NewSweepTask(limit int) (*asynq.Task, error) {
	payload, err := json.Marshal(sweepPayload{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal sweep payload: %w", err)
	}
	return asynq.NewTask(TypeExpireSweep, payload, asynq.MaxRetry(1)), nil
}

// Handler runs sweep tasks against a Sweeper.
type Handler struct {
	sweeper Sweeper
	log     logger.Logger
}

// NewHandler creates a task handler.
func NewHandler(sweeper Sweeper, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{sweeper: sweeper, log: log}
}

// ProcessTask implements asynq.Handler.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p sweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("%w: %v: %w", ErrInvalidPayload, err, asynq.SkipRetry)
		}
	}
	n, err := h.sweeper.SweepExpired(ctx, p.Limit)
	if err != nil {
		h.log.Error(ctx, "expiry sweep failed", logger.Error(err))
		return fmt.Errorf("sweep: %w", err)
	}
	h.log.Debug(ctx, "expiry sweep task done", logger.Int("expired", n))
	return nil
}
