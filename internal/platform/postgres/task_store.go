package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/platform/logger"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Insert implements store.TaskStore.Insert
// It saves a new task to the database, handling domain validation.
// Returns store.ErrInvalidEntity wrapping the validation error if data is invalid.
// Returns store.ErrDuplicate if a task with the same ID already exists.
func (s *PostgresTaskStore) Insert(ctx context.Context, task *domain.Task) error {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	if task == nil {
		return fmt.Errorf("%w: task cannot be nil", store.ErrInvalidEntity)
	}

	// Validate task data
	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during insert",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, prospect_id, title, description, task_type,
			category, priority, status, due_date, is_automated, is_recurring,
			recurring_interval_days, parent_task_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.ProspectID,
		task.Title,
		task.Description,
		task.TaskType,
		task.Category,
		task.Priority,
		task.Status,
		task.DueDate,
		task.IsAutomated,
		task.IsRecurring,
		task.RecurringIntervalDays,
		task.ParentTaskID,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		// Check for duplicate task ID
		if IsUniqueViolation(err) {
			log.Warn("duplicate task ID during insert",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			return fmt.Errorf("%w: task with ID %s already exists",
				store.ErrDuplicate, task.ID)
		}

		// Check for foreign key violation on the parent reference
		if IsForeignKeyViolation(err) && task.ParentTaskID != nil {
			log.Warn("foreign key violation during task insert",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()),
				slog.String("parent_task_id", task.ParentTaskID.String()))
			return fmt.Errorf("%w: parent task with ID %s not found",
				store.ErrInvalidEntity, *task.ParentTaskID)
		}

		// Log the error
		log.Error("failed to insert task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))

		return MapError(err)
	}

	log.Info("task inserted successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)),
		slog.Bool("is_recurring", task.IsRecurring),
		slog.Bool("is_automated", task.IsAutomated))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// It retrieves a task by its unique ID.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving task by ID", slog.String("task_id", id.String()))

	query := `
		SELECT id, prospect_id, title, description, task_type, category,
			priority, status, due_date, is_automated, is_recurring,
			recurring_interval_days, parent_task_id, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	log.Debug("task retrieved successfully",
		slog.String("task_id", id.String()),
		slog.String("status", string(task.Status)))
	return task, nil
}

// ConditionalUpdateStatus implements store.TaskStore.ConditionalUpdateStatus
// It updates the task's status only if the stored status still equals expected,
// making lifecycle transitions safe against concurrent writers.
// Returns store.ErrStaleState if a concurrent writer changed the status first.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) ConditionalUpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	expected, target domain.TaskStatus,
) error {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("updating task status",
		slog.String("task_id", id.String()),
		slog.String("expected", string(expected)),
		slog.String("target", string(target)))

	query := `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		target,
		time.Now().UTC(),
		id,
		expected,
	)

	if err != nil {
		log.Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.String("target", string(target)))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	// No row matched: either the task is gone or its status moved on.
	// Re-read to tell the two cases apart.
	if rowsAffected == 0 {
		var current string
		err := s.db.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = $1`, id).
			Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				log.Debug("task not found for status update",
					slog.String("task_id", id.String()))
				return store.ErrTaskNotFound
			}
			log.Error("failed to re-read task status",
				slog.String("error", err.Error()),
				slog.String("task_id", id.String()))
			return err
		}

		log.Warn("conditional status update lost race",
			slog.String("task_id", id.String()),
			slog.String("expected", string(expected)),
			slog.String("current", current))
		return fmt.Errorf("%w: task %s is %s, expected %s",
			store.ErrStaleState, id, current, expected)
	}

	log.Info("task status updated successfully",
		slog.String("task_id", id.String()),
		slog.String("status", string(target)))
	return nil
}

// UpdateDetails implements store.TaskStore.UpdateDetails
// It modifies the description and due date of an existing task.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) UpdateDetails(
	ctx context.Context,
	id uuid.UUID,
	description string,
	dueDate *time.Time,
) error {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("updating task details", slog.String("task_id", id.String()))

	query := `
		UPDATE tasks
		SET description = $1, due_date = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		description,
		dueDate,
		time.Now().UTC(),
		id,
	)

	if err != nil {
		log.Error("failed to update task details",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	// Check if a row was actually updated
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	// If no rows were affected, the task didn't exist
	if rowsAffected == 0 {
		log.Debug("task not found for details update",
			slog.String("task_id", id.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task details updated successfully",
		slog.String("task_id", id.String()))
	return nil
}

// FindChild implements store.TaskStore.FindChild
// It retrieves the direct successor of the given parent task.
// Returns store.ErrTaskNotFound if no successor exists yet.
func (s *PostgresTaskStore) FindChild(ctx context.Context, parentID uuid.UUID) (*domain.Task, error) {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving successor task",
		slog.String("parent_task_id", parentID.String()))

	query := `
		SELECT id, prospect_id, title, description, task_type, category,
			priority, status, due_date, is_automated, is_recurring,
			recurring_interval_days, parent_task_id, created_at, updated_at
		FROM tasks
		WHERE parent_task_id = $1
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, parentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no successor found",
				slog.String("parent_task_id", parentID.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get successor task",
			slog.String("error", err.Error()),
			slog.String("parent_task_id", parentID.String()))
		return nil, err
	}

	log.Debug("successor task retrieved successfully",
		slog.String("parent_task_id", parentID.String()),
		slog.String("task_id", task.ID.String()))
	return task, nil
}

// FindRecurrenceCandidates implements store.TaskStore.FindRecurrenceCandidates
// It retrieves recurring tasks that reached completed or skipped and have no
// successor yet, oldest first. Cancelled tasks never qualify, which is what
// ends a chain.
// Returns an empty slice if no tasks match the criteria.
func (s *PostgresTaskStore) FindRecurrenceCandidates(ctx context.Context, limit int) ([]*domain.Task, error) {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate limit
	if limit <= 0 {
		limit = 100 // Default batch size
	}

	log.Debug("finding recurrence candidates", slog.Int("limit", limit))

	query := `
		SELECT t.id, t.prospect_id, t.title, t.description, t.task_type, t.category,
			t.priority, t.status, t.due_date, t.is_automated, t.is_recurring,
			t.recurring_interval_days, t.parent_task_id, t.created_at, t.updated_at
		FROM tasks t
		WHERE t.is_recurring = TRUE
			AND t.status IN ($1, $2)
			AND NOT EXISTS (
				SELECT 1 FROM tasks c WHERE c.parent_task_id = t.id
			)
		ORDER BY t.updated_at ASC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(
		ctx,
		query,
		domain.TaskStatusCompleted,
		domain.TaskStatusSkipped,
		limit,
	)
	if err != nil {
		log.Error("failed to query recurrence candidates",
			slog.String("error", err.Error()))
		return nil, err
	}

	tasks, err := collectTasks(rows, log)
	if err != nil {
		return nil, err
	}

	log.Debug("found recurrence candidates", slog.Int("count", len(tasks)))
	return tasks, nil
}

// FindOverduePending implements store.TaskStore.FindOverduePending
// It retrieves pending tasks whose due date lies before asOf, oldest first.
// Returns an empty slice if no tasks match the criteria.
func (s *PostgresTaskStore) FindOverduePending(
	ctx context.Context,
	asOf time.Time,
	limit int,
) ([]*domain.Task, error) {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate limit
	if limit <= 0 {
		limit = 100 // Default batch size
	}

	log.Debug("finding overdue pending tasks",
		slog.Time("as_of", asOf),
		slog.Int("limit", limit))

	query := `
		SELECT id, prospect_id, title, description, task_type, category,
			priority, status, due_date, is_automated, is_recurring,
			recurring_interval_days, parent_task_id, created_at, updated_at
		FROM tasks
		WHERE status = $1 AND due_date IS NOT NULL AND due_date < $2
		ORDER BY due_date ASC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, domain.TaskStatusPending, asOf, limit)
	if err != nil {
		log.Error("failed to query overdue pending tasks",
			slog.String("error", err.Error()))
		return nil, err
	}

	tasks, err := collectTasks(rows, log)
	if err != nil {
		return nil, err
	}

	log.Debug("found overdue pending tasks", slog.Int("count", len(tasks)))
	return tasks, nil
}

// FindByProspect implements store.TaskStore.FindByProspect
// It retrieves all tasks attached to the given prospect, newest first.
// Returns an empty slice if the prospect has no tasks.
func (s *PostgresTaskStore) FindByProspect(ctx context.Context, prospectID uuid.UUID) ([]*domain.Task, error) {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("finding tasks by prospect",
		slog.String("prospect_id", prospectID.String()))

	query := `
		SELECT id, prospect_id, title, description, task_type, category,
			priority, status, due_date, is_automated, is_recurring,
			recurring_interval_days, parent_task_id, created_at, updated_at
		FROM tasks
		WHERE prospect_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, prospectID)
	if err != nil {
		log.Error("failed to query tasks by prospect",
			slog.String("error", err.Error()),
			slog.String("prospect_id", prospectID.String()))
		return nil, err
	}

	tasks, err := collectTasks(rows, log)
	if err != nil {
		return nil, err
	}

	log.Debug("found tasks by prospect",
		slog.String("prospect_id", prospectID.String()),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// ClearProspectRefs implements store.TaskStore.ClearProspectRefs
// It nulls the prospect reference on every task pointing at the given prospect.
// Tasks survive the removal of their prospect; only the link is dropped.
// Returns the number of tasks updated.
func (s *PostgresTaskStore) ClearProspectRefs(ctx context.Context, prospectID uuid.UUID) (int64, error) {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET prospect_id = NULL, updated_at = $1
		WHERE prospect_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), prospectID)
	if err != nil {
		log.Error("failed to clear prospect references",
			slog.String("error", err.Error()),
			slog.String("prospect_id", prospectID.String()))
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("prospect_id", prospectID.String()))
		return 0, err
	}

	if rowsAffected > 0 {
		log.Info("cleared prospect references",
			slog.String("prospect_id", prospectID.String()),
			slog.Int64("count", rowsAffected))
	}
	return rowsAffected, nil
}

// Delete implements store.TaskStore.Delete
// It removes a task from the store by its ID.
// Returns store.ErrTaskNotFound if the task does not exist.
// Returns store.ErrTaskHasSuccessor if another task still references it as
// parent; the chain must be removed leaf-first.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM tasks
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		// A foreign key violation here means a successor still points at
		// this task through parent_task_id.
		if IsForeignKeyViolation(err) {
			log.Warn("task deletion blocked by successor",
				slog.String("error", err.Error()),
				slog.String("task_id", id.String()))
			return fmt.Errorf("%w: %v", store.ErrTaskHasSuccessor, err)
		}
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		log.Debug("task not found for delete",
			slog.String("task_id", id.String()))
		return err
	}

	log.Info("task deleted successfully", slog.String("task_id", id.String()))
	return nil
}

// WithTx implements store.TaskStore.WithTx
// It returns a new TaskStore instance that uses the provided transaction,
// preserving the configured logger.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanTask reads a single task row into a domain.Task, converting the
// nullable columns into their pointer forms. It works for both sql.Row and
// sql.Rows scans.
func scanTask(row interface{ Scan(dest ...any) error }) (*domain.Task, error) {
	var (
		task         domain.Task
		prospectID   uuid.NullUUID
		status       string
		dueDate      sql.NullTime
		intervalDays sql.NullInt32
		parentTaskID uuid.NullUUID
	)

	err := row.Scan(
		&task.ID,
		&prospectID,
		&task.Title,
		&task.Description,
		&task.TaskType,
		&task.Category,
		&task.Priority,
		&status,
		&dueDate,
		&task.IsAutomated,
		&task.IsRecurring,
		&intervalDays,
		&parentTaskID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	if prospectID.Valid {
		id := prospectID.UUID
		task.ProspectID = &id
	}
	if dueDate.Valid {
		due := dueDate.Time
		task.DueDate = &due
	}
	if intervalDays.Valid {
		interval := int(intervalDays.Int32)
		task.RecurringIntervalDays = &interval
	}
	if parentTaskID.Valid {
		parent := parentTaskID.UUID
		task.ParentTaskID = &parent
	}

	return &task, nil
}

// collectTasks drains a task result set into a slice, closing the rows when
// done. Returns an empty slice instead of nil when no rows matched.
func collectTasks(rows *sql.Rows, log *slog.Logger) ([]*domain.Task, error) {
	defer func() {
		err := rows.Close()
		if err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no tasks found
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	return tasks, nil
}
