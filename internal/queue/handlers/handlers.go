package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/inftyart/inftyart/internal/usecase"
)

// Handlers holds dependencies for task handlers
type Handlers struct {
	uc usecase.Usecase
}

// NewHandlers creates a new handlers instance
func NewHandlers(uc usecase.Usecase) *Handlers {
	return &Handlers{uc: uc}
}

// HandleSettlementPayout pays the seller for a completed transfer.
// Returning an error lets asynq retry with backoff.
func (h *Handlers) HandleSettlementPayout(ctx context.Context, t *asynq.Task) error {
	var payload usecase.SettlementPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal settlement payload: %v: %w", err, asynq.SkipRetry)
	}

	slog.Info("processing settlement payout",
		slog.String("to", payload.To),
		slog.String("amount", payload.Amount.String()),
		slog.String("target_id", payload.TargetID),
	)

	if err := h.uc.ProcessSettlement(ctx, payload); err != nil {
		return fmt.Errorf("settlement payout failed: %w", err)
	}

	return nil
}
