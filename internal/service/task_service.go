package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/events"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/platform/logger"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/store"
)

// TaskServiceError wraps errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "transition")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
// Known sentinel errors are returned directly without wrapping, and
// store-level sentinels are mapped to their service-level counterparts so
// callers only ever check service errors.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	// Service-defined sentinel errors pass through unchanged
	if errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrProspectNotFound) ||
		errors.Is(err, ErrTaskHasSuccessor) ||
		errors.Is(err, ErrStaleTransition) {
		return err
	}

	// Rejected lifecycle edges keep their domain error, which names the
	// attempted transition
	if errors.Is(err, domain.ErrInvalidTransition) {
		return err
	}

	// Map store-level sentinels to service-level ones
	if errors.Is(err, store.ErrTaskNotFound) {
		return ErrTaskNotFound
	}
	if errors.Is(err, store.ErrProspectNotFound) {
		return ErrProspectNotFound
	}
	if errors.Is(err, store.ErrTaskHasSuccessor) {
		return ErrTaskHasSuccessor
	}
	if errors.Is(err, store.ErrStaleState) {
		return ErrStaleTransition
	}

	// If not a sentinel to be returned directly, wrap it
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// TaskRepository defines the repository interface for the service layer
type TaskRepository interface {
	// Insert saves a new task occurrence to the store
	Insert(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ConditionalUpdateStatus updates the status only while the stored
	// value still equals expected
	ConditionalUpdateStatus(ctx context.Context, id uuid.UUID, expected, target domain.TaskStatus) error

	// UpdateDetails modifies the post-creation mutable fields
	UpdateDetails(ctx context.Context, id uuid.UUID, description string, dueDate *time.Time) error

	// FindChild retrieves the direct successor of the given parent task
	FindChild(ctx context.Context, parentID uuid.UUID) (*domain.Task, error)

	// FindOverduePending retrieves pending tasks past their due date
	FindOverduePending(ctx context.Context, asOf time.Time, limit int) ([]*domain.Task, error)

	// FindByProspect retrieves all tasks attached to the given prospect
	FindByProspect(ctx context.Context, prospectID uuid.UUID) ([]*domain.Task, error)

	// Delete removes a task; it fails while a successor references it
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new repository instance that uses the provided transaction
	WithTx(tx *sql.Tx) TaskRepository

	// DB returns the underlying database connection
	DB() *sql.DB
}

// ProspectRepository defines the read-only prospect registry view the
// service needs. Prospects are owned by the surrounding CRM; the task
// engine only verifies their existence.
type ProspectRepository interface {
	// Exists reports whether a prospect record with the given ID is present
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CreateTaskParams carries the caller-supplied fields for a new task.
// Zero values fall back to the domain defaults (general type, sales
// category, priority 3).
type CreateTaskParams struct {
	// ProspectID optionally attaches the task to a prospect. The prospect
	// must exist at creation time.
	ProspectID *uuid.UUID

	// Title is the required short label for the task.
	Title string

	// Description carries free-form detail.
	Description string

	// TaskType overrides the default task type when non-empty.
	TaskType string

	// Category overrides the default category when non-empty.
	Category string

	// Priority overrides the default priority when set. Valid range is
	// 1 (highest) to 4.
	Priority *int

	// DueDate optionally schedules the task.
	DueDate *time.Time

	// IsAutomated marks tasks created by machinery rather than a person.
	IsAutomated bool

	// RecurringIntervalDays, when set, makes the task recurring: closing
	// it as completed or skipped will generate a successor occurrence this
	// many days after its due date.
	RecurringIntervalDays *int
}

// UpdateTaskParams carries a partial edit of a task's mutable fields.
// Nil fields are left unchanged.
type UpdateTaskParams struct {
	// Description replaces the task description when set.
	Description *string

	// DueDate replaces the due date when set.
	DueDate *time.Time

	// ClearDueDate removes the due date entirely. It takes precedence
	// over DueDate.
	ClearDueDate bool
}

// TaskService provides task lifecycle operations
type TaskService interface {
	// CreateTask creates a new task, optionally recurring, optionally
	// attached to a prospect
	CreateTask(ctx context.Context, params CreateTaskParams) (*domain.Task, error)

	// GetTask retrieves a task by its ID
	GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)

	// Transition moves a task along a legal lifecycle edge and returns the
	// updated task. Completing or skipping a recurring task emits a
	// recurrence trigger event.
	Transition(ctx context.Context, taskID uuid.UUID, target domain.TaskStatus) (*domain.Task, error)

	// UpdateTask edits the fields that stay mutable after creation
	UpdateTask(ctx context.Context, taskID uuid.UUID, params UpdateTaskParams) (*domain.Task, error)

	// GetChain returns the full recurrence chain containing the given
	// task, ordered from the root occurrence to the latest
	GetChain(ctx context.Context, taskID uuid.UUID) ([]*domain.Task, error)

	// ListOverdue returns pending tasks whose due date lies before asOf
	ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Task, error)

	// ListByProspect returns all tasks attached to the given prospect
	ListByProspect(ctx context.Context, prospectID uuid.UUID) ([]*domain.Task, error)

	// DeleteTask removes a task permanently. It refuses while a successor
	// occurrence still references the task as its parent.
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	taskRepo     TaskRepository
	prospectRepo ProspectRepository
	eventEmitter events.EventEmitter
	logger       *slog.Logger
}

// NewTaskService creates a new TaskService
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	taskRepo TaskRepository,
	prospectRepo ProspectRepository,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (TaskService, error) {
	// Validate dependencies
	if taskRepo == nil {
		return nil, domain.NewValidationError("taskRepo", "cannot be nil", domain.ErrValidation)
	}
	if prospectRepo == nil {
		return nil, domain.NewValidationError("prospectRepo", "cannot be nil", domain.ErrValidation)
	}
	if eventEmitter == nil {
		return nil, domain.NewValidationError("eventEmitter", "cannot be nil", domain.ErrValidation)
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		taskRepo:     taskRepo,
		prospectRepo: prospectRepo,
		eventEmitter: eventEmitter,
		logger:       logger.With(slog.String("component", "task_service")),
	}, nil
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	params CreateTaskParams,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// 1. Verify the prospect exists when one is referenced. The reference
	// is weak (no foreign key), so this is the only creation-time check.
	if params.ProspectID != nil {
		exists, err := s.prospectRepo.Exists(ctx, *params.ProspectID)
		if err != nil {
			log.Error("failed to verify prospect existence",
				slog.String("error", err.Error()),
				slog.String("prospect_id", params.ProspectID.String()))
			return nil, NewTaskServiceError("create_task", "failed to verify prospect", err)
		}
		if !exists {
			log.Warn("task creation rejected: prospect does not exist",
				slog.String("prospect_id", params.ProspectID.String()))
			return nil, NewTaskServiceError("create_task", "prospect does not exist", ErrProspectNotFound)
		}
	}

	// 2. Build the task with defaults, then apply the caller's overrides
	task, err := domain.NewTask(params.ProspectID, params.Title, params.Description)
	if err != nil {
		log.Error("failed to create task object",
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create_task", "invalid task data", err)
	}

	if params.TaskType != "" {
		task.TaskType = params.TaskType
	}
	if params.Category != "" {
		task.Category = params.Category
	}
	if params.Priority != nil {
		task.Priority = *params.Priority
	}
	task.DueDate = params.DueDate
	task.IsAutomated = params.IsAutomated

	if params.RecurringIntervalDays != nil {
		if err := task.EnableRecurrence(*params.RecurringIntervalDays); err != nil {
			log.Error("failed to enable recurrence",
				slog.String("error", err.Error()),
				slog.Int("interval_days", *params.RecurringIntervalDays))
			return nil, NewTaskServiceError("create_task", "invalid recurrence interval", err)
		}
	}

	// Re-validate after overrides; the priority override in particular can
	// push the task out of range
	if err := task.Validate(); err != nil {
		log.Error("task failed validation after applying overrides",
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create_task", "invalid task data", err)
	}

	// 3. Save the task using a transaction
	err = store.RunInTransaction(ctx, s.taskRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.taskRepo.WithTx(tx)

		if err := txRepo.Insert(ctx, task); err != nil {
			log.Error("failed to insert task in transaction",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			return NewTaskServiceError("create_task", "failed to save task", err)
		}
		return nil
	})
	if err != nil {
		// Error is already wrapped in the transaction
		return nil, err
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.Bool("is_recurring", task.IsRecurring))

	return task, nil
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		log.Error("failed to retrieve task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, NewTaskServiceError("get_task", "failed to retrieve task", err)
	}

	log.Debug("retrieved task successfully",
		slog.String("task_id", taskID.String()),
		slog.String("status", string(task.Status)))

	return task, nil
}

// Transition implements TaskService.Transition
//
// The write is a compare-and-set on the status the caller just read, so
// two concurrent transitions of the same task cannot both win: the loser
// gets ErrStaleTransition and may re-read and retry. When the winning edge
// ends a recurring task as completed or skipped, a recurrence trigger event
// is emitted on the fast path; emission failures are logged and swallowed
// because the periodic scan picks the task up regardless.
func (s *taskServiceImpl) Transition(
	ctx context.Context,
	taskID uuid.UUID,
	target domain.TaskStatus,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// 1. Read the current state
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		log.Error("failed to retrieve task for transition",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, NewTaskServiceError("transition", "failed to retrieve task", err)
	}

	expected := task.Status

	// 2. Apply the edge on the entity; illegal edges are rejected here
	// before any write happens
	if err := task.TransitionTo(target); err != nil {
		log.Warn("rejected lifecycle transition",
			slog.String("task_id", taskID.String()),
			slog.String("from", string(expected)),
			slog.String("to", string(target)),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("transition", "illegal lifecycle transition", err)
	}

	// 3. Persist conditionally on the status we read
	if err := s.taskRepo.ConditionalUpdateStatus(ctx, taskID, expected, target); err != nil {
		if store.IsStaleStateError(err) {
			log.Warn("lifecycle transition lost race",
				slog.String("task_id", taskID.String()),
				slog.String("expected", string(expected)),
				slog.String("target", string(target)))
		} else {
			log.Error("failed to persist lifecycle transition",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
		}
		return nil, NewTaskServiceError("transition", "failed to persist transition", err)
	}

	log.Info("task transitioned",
		slog.String("task_id", taskID.String()),
		slog.String("from", string(expected)),
		slog.String("to", string(target)))

	// 4. Completing or skipping a recurring task advances its chain
	if target.TriggersRecurrence() && task.IsRecurring {
		event, err := events.NewRecurrenceTriggeredEvent(task.ID, task.UpdatedAt, task.DueDate)
		if err != nil {
			log.Error("failed to build recurrence trigger event",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
		} else if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
			// Not fatal: the periodic scan finds the task as a
			// candidate on its next pass
			log.Warn("failed to emit recurrence trigger event",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()),
				slog.String("event_id", event.ID.String()))
		} else {
			log.Debug("recurrence trigger event emitted",
				slog.String("task_id", task.ID.String()),
				slog.String("event_id", event.ID.String()))
		}
	}

	return task, nil
}

// UpdateTask implements TaskService.UpdateTask
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	taskID uuid.UUID,
	params UpdateTaskParams,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		log.Error("failed to retrieve task for update",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, NewTaskServiceError("update_task", "failed to retrieve task", err)
	}

	// Merge the partial edit over the current values
	description := task.Description
	if params.Description != nil {
		description = *params.Description
	}

	dueDate := task.DueDate
	if params.ClearDueDate {
		dueDate = nil
	} else if params.DueDate != nil {
		dueDate = params.DueDate
	}

	task.UpdateDetails(description, dueDate)

	if err := s.taskRepo.UpdateDetails(ctx, taskID, description, dueDate); err != nil {
		log.Error("failed to persist task update",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, NewTaskServiceError("update_task", "failed to save task", err)
	}

	log.Info("task updated",
		slog.String("task_id", taskID.String()))

	return task, nil
}

// GetChain implements TaskService.GetChain
//
// Chains are linear: every occurrence has at most one successor, so the
// full chain is the ancestor walk up to the nil-parent root plus the
// successor walk down from the requested task. A visited set guards
// against reference cycles introduced by out-of-band data edits.
func (s *taskServiceImpl) GetChain(ctx context.Context, taskID uuid.UUID) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		log.Error("failed to retrieve task for chain walk",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, NewTaskServiceError("get_chain", "failed to retrieve task", err)
	}

	visited := map[uuid.UUID]bool{task.ID: true}

	// Walk up to the root
	var ancestors []*domain.Task
	cur := task
	for cur.ParentTaskID != nil {
		parentID := *cur.ParentTaskID
		if visited[parentID] {
			log.Error("task chain contains a cycle",
				slog.String("task_id", taskID.String()),
				slog.String("repeated_id", parentID.String()))
			return nil, &TaskServiceError{
				Operation: "get_chain",
				Message:   fmt.Sprintf("chain of task %s contains a cycle", taskID),
			}
		}

		parent, err := s.taskRepo.GetByID(ctx, parentID)
		if err != nil {
			log.Error("failed to retrieve chain ancestor",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()),
				slog.String("parent_task_id", parentID.String()))
			// A dangling parent reference is data corruption, not a
			// missing requested entity; don't surface it as not-found
			return nil, &TaskServiceError{
				Operation: "get_chain",
				Message:   fmt.Sprintf("chain ancestor %s unavailable", parentID),
				Err:       err,
			}
		}

		visited[parent.ID] = true
		ancestors = append(ancestors, parent)
		cur = parent
	}

	// Assemble root-first: ancestors were collected nearest-first
	chain := make([]*domain.Task, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		chain = append(chain, ancestors[i])
	}
	chain = append(chain, task)

	// Walk down to the latest occurrence
	cur = task
	for {
		child, err := s.taskRepo.FindChild(ctx, cur.ID)
		if err != nil {
			if store.IsNotFoundError(err) {
				break
			}
			log.Error("failed to retrieve chain successor",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()),
				slog.String("parent_task_id", cur.ID.String()))
			return nil, NewTaskServiceError("get_chain", "failed to walk successors", err)
		}

		if visited[child.ID] {
			log.Error("task chain contains a cycle",
				slog.String("task_id", taskID.String()),
				slog.String("repeated_id", child.ID.String()))
			return nil, &TaskServiceError{
				Operation: "get_chain",
				Message:   fmt.Sprintf("chain of task %s contains a cycle", taskID),
			}
		}

		visited[child.ID] = true
		chain = append(chain, child)
		cur = child
	}

	log.Debug("chain walk complete",
		slog.String("task_id", taskID.String()),
		slog.Int("chain_length", len(chain)))

	return chain, nil
}

// ListOverdue implements TaskService.ListOverdue
func (s *taskServiceImpl) ListOverdue(
	ctx context.Context,
	asOf time.Time,
	limit int,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	tasks, err := s.taskRepo.FindOverduePending(ctx, asOf, limit)
	if err != nil {
		log.Error("failed to list overdue tasks",
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("list_overdue", "failed to list overdue tasks", err)
	}

	log.Debug("listed overdue tasks",
		slog.Int("count", len(tasks)))

	return tasks, nil
}

// ListByProspect implements TaskService.ListByProspect
func (s *taskServiceImpl) ListByProspect(
	ctx context.Context,
	prospectID uuid.UUID,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tasks, err := s.taskRepo.FindByProspect(ctx, prospectID)
	if err != nil {
		log.Error("failed to list tasks for prospect",
			slog.String("error", err.Error()),
			slog.String("prospect_id", prospectID.String()))
		return nil, NewTaskServiceError("list_by_prospect", "failed to list tasks", err)
	}

	log.Debug("listed tasks for prospect",
		slog.String("prospect_id", prospectID.String()),
		slog.Int("count", len(tasks)))

	return tasks, nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	log.Info("task deleted",
		slog.String("task_id", taskID.String()))

	return nil
}
