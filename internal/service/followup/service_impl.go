package followup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain/recurrence"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/platform/logger"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/store"
)

// Verify interface compliance at compile time
var _ Generator = (*generatorImpl)(nil)

// txFn runs generation steps against transaction-bound repositories.
type txFn func(ctx context.Context, taskRepo TaskRepository, claimRepo ClaimRepository) error

// generatorImpl implements the Generator interface.
type generatorImpl struct {
	taskRepo          TaskRepository
	claimRepo         ClaimRepository
	prospectRepo      ProspectRepository
	recurrenceService recurrence.Service
	logger            *slog.Logger

	// runTx executes a txFn inside a database transaction. It is a field so
	// tests can drive the generation logic against in-memory repositories.
	runTx func(ctx context.Context, fn txFn) error
}

// NewGenerator creates a new follow-up Generator.
// It returns an error if any of the required dependencies are nil.
func NewGenerator(
	taskRepo TaskRepository,
	claimRepo ClaimRepository,
	prospectRepo ProspectRepository,
	recurrenceService recurrence.Service,
	logger *slog.Logger,
) (Generator, error) {
	// Validate dependencies
	if taskRepo == nil {
		return nil, domain.NewValidationError("taskRepo", "cannot be nil", domain.ErrValidation)
	}
	if claimRepo == nil {
		return nil, domain.NewValidationError("claimRepo", "cannot be nil", domain.ErrValidation)
	}
	if prospectRepo == nil {
		return nil, domain.NewValidationError("prospectRepo", "cannot be nil", domain.ErrValidation)
	}
	if recurrenceService == nil {
		return nil, domain.NewValidationError("recurrenceService", "cannot be nil", domain.ErrValidation)
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	g := &generatorImpl{
		taskRepo:          taskRepo,
		claimRepo:         claimRepo,
		prospectRepo:      prospectRepo,
		recurrenceService: recurrenceService,
		logger:            logger.With(slog.String("component", "followup_generator")),
	}
	g.runTx = g.runInTransaction
	return g, nil
}

// GenerateSuccessor implements Generator.GenerateSuccessor.
func (g *generatorImpl) GenerateSuccessor(
	ctx context.Context,
	parentTaskID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	log.Debug("advancing recurrence chain",
		slog.String("parent_task_id", parentTaskID.String()))

	// 1. Load the parent and build the successor before opening a
	// transaction. The parent is terminal, so nothing about it can change
	// underneath us.
	parent, err := g.taskRepo.GetByID(ctx, parentTaskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Warn("parent task no longer exists",
				slog.String("parent_task_id", parentTaskID.String()))
			return nil, ErrParentNotFound
		}
		log.Error("failed to load parent task",
			slog.String("error", err.Error()),
			slog.String("parent_task_id", parentTaskID.String()))
		return nil, NewGenerateError("failed to load parent task", err)
	}

	successor, err := g.recurrenceService.NextOccurrence(parent, time.Now().UTC())
	if err != nil {
		if errors.Is(err, recurrence.ErrNotRecurring) ||
			errors.Is(err, recurrence.ErrNoInterval) ||
			errors.Is(err, recurrence.ErrNotTriggering) {
			log.Debug("parent is not eligible for a successor",
				slog.String("parent_task_id", parentTaskID.String()),
				slog.String("reason", err.Error()))
			return nil, fmt.Errorf("%w: %v", ErrNotEligible, err)
		}
		log.Error("failed to build successor",
			slog.String("error", err.Error()),
			slog.String("parent_task_id", parentTaskID.String()))
		return nil, NewGenerateError("failed to build successor", err)
	}

	// 2. React to a vanished prospect: the successor drops the reference
	// and the stale references on the rest of the chain are scrubbed inside
	// the transaction below.
	var staleProspectID *uuid.UUID
	if successor.ProspectID != nil {
		exists, err := g.prospectRepo.Exists(ctx, *successor.ProspectID)
		if err != nil {
			log.Error("failed to verify prospect existence",
				slog.String("error", err.Error()),
				slog.String("prospect_id", successor.ProspectID.String()))
			return nil, NewGenerateError("failed to verify prospect", err)
		}
		if !exists {
			log.Info("prospect no longer exists, clearing references",
				slog.String("prospect_id", successor.ProspectID.String()),
				slog.String("parent_task_id", parentTaskID.String()))
			staleProspectID = successor.ProspectID
			successor.ProspectID = nil
		}
	}

	// 3. Claim the parent and persist the successor atomically. A failed
	// insert rolls the claim back with it, so the chain can never stall
	// half-advanced.
	err = g.runTx(ctx, func(ctx context.Context, taskRepo TaskRepository, claimRepo ClaimRepository) error {
		claimed, err := claimRepo.TryClaim(ctx, parentTaskID)
		if err != nil {
			if store.IsNotFoundError(err) {
				// The parent was deleted between the read above and the
				// claim insert
				return ErrParentNotFound
			}
			return NewGenerateError("failed to record claim", err)
		}

		if !claimed {
			// The claim is already held: either the successor exists, the
			// normal duplicate-trigger case, or a previous attempt claimed
			// without persisting and creation must be retried.
			if _, err := taskRepo.FindChild(ctx, parentTaskID); err == nil {
				return ErrAlreadyClaimed
			} else if !store.IsNotFoundError(err) {
				return NewGenerateError("failed to check for existing successor", err)
			}

			// Lock the claim row so exactly one recovery proceeds, then
			// re-check: the original holder may have committed while we
			// waited for the lock.
			if err := claimRepo.Lock(ctx, parentTaskID); err != nil {
				if errors.Is(err, store.ErrClaimNotFound) {
					// Claims only vanish when the parent is deleted and
					// takes them along
					return ErrParentNotFound
				}
				return NewGenerateError("failed to lock claim for recovery", err)
			}
			if _, err := taskRepo.FindChild(ctx, parentTaskID); err == nil {
				return ErrAlreadyClaimed
			} else if !store.IsNotFoundError(err) {
				return NewGenerateError("failed to re-check for existing successor", err)
			}

			log.Warn("recovering a claim that has no successor",
				slog.String("parent_task_id", parentTaskID.String()))
		}

		if staleProspectID != nil {
			cleared, err := taskRepo.ClearProspectRefs(ctx, *staleProspectID)
			if err != nil {
				return NewGenerateError("failed to clear stale prospect references", err)
			}
			if cleared > 0 {
				log.Info("cleared stale prospect references",
					slog.Int64("tasks_cleared", cleared),
					slog.String("prospect_id", staleProspectID.String()))
			}
		}

		if err := taskRepo.Insert(ctx, successor); err != nil {
			return NewGenerateError("failed to persist successor", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyClaimed) {
			log.Debug("successor already exists",
				slog.String("parent_task_id", parentTaskID.String()))
			return nil, ErrAlreadyClaimed
		}
		if errors.Is(err, ErrParentNotFound) {
			log.Warn("parent task vanished during generation",
				slog.String("parent_task_id", parentTaskID.String()))
			return nil, ErrParentNotFound
		}
		log.Error("successor generation failed, candidate stays for the next scan",
			slog.String("error", err.Error()),
			slog.String("parent_task_id", parentTaskID.String()))
		return nil, err
	}

	log.Info("successor created",
		slog.String("parent_task_id", parentTaskID.String()),
		slog.String("task_id", successor.ID.String()),
		slog.Time("due_date", *successor.DueDate))

	return successor, nil
}

// runInTransaction executes fn with transaction-bound repositories.
func (g *generatorImpl) runInTransaction(ctx context.Context, fn txFn) error {
	return store.RunInTransaction(ctx, g.taskRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, g.taskRepo.WithTx(tx), g.claimRepo.WithTx(tx))
	})
}
