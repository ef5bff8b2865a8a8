package followup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/events"
)

// RecurrenceTriggeredHandler implements the events.EventHandler interface to
// advance a recurrence chain as soon as its trigger event fires, instead of
// waiting for the next scheduler pass. The scan remains the recovery net, so
// this handler treats a lost race as success: duplicate deliveries and
// already-generated successors are expected, not errors.
type RecurrenceTriggeredHandler struct {
	generator Generator
	logger    *slog.Logger
}

// NewRecurrenceTriggeredHandler creates an event handler that feeds
// recurrence trigger events to the given generator.
func NewRecurrenceTriggeredHandler(
	generator Generator,
	logger *slog.Logger,
) (*RecurrenceTriggeredHandler, error) {
	if generator == nil {
		return nil, domain.NewValidationError("generator", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RecurrenceTriggeredHandler{
		generator: generator,
		logger:    logger.With(slog.String("component", "recurrence_trigger_handler")),
	}, nil
}

// HandleEvent processes a recurrence trigger by generating the successor
// occurrence. Events of other types are ignored.
func (h *RecurrenceTriggeredHandler) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	if event.Type != events.EventTypeRecurrenceTriggered {
		h.logger.DebugContext(ctx, "ignoring event with unsupported type",
			slog.String("event_type", event.Type),
			slog.String("event_id", event.ID.String()))
		return nil
	}

	var payload events.RecurrenceTriggeredPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal trigger payload",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	successor, err := h.generator.GenerateSuccessor(ctx, payload.TaskID)
	switch {
	case err == nil:
		h.logger.InfoContext(ctx, "trigger advanced the recurrence chain",
			slog.String("parent_task_id", payload.TaskID.String()),
			slog.String("successor_task_id", successor.ID.String()),
			slog.String("event_id", event.ID.String()))
		return nil
	case errors.Is(err, ErrAlreadyClaimed),
		errors.Is(err, ErrNotEligible),
		errors.Is(err, ErrParentNotFound):
		// Duplicate delivery, or another path already advanced the chain.
		h.logger.DebugContext(ctx, "trigger needed no action",
			slog.String("parent_task_id", payload.TaskID.String()),
			slog.String("reason", err.Error()))
		return nil
	default:
		// The candidate stays visible to the scheduler scan, which retries.
		return fmt.Errorf("failed to generate successor for task %s: %w", payload.TaskID, err)
	}
}

// Ensure RecurrenceTriggeredHandler implements events.EventHandler
var _ events.EventHandler = (*RecurrenceTriggeredHandler)(nil)
