package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Insert saves a new task occurrence to the store.
	// Returns a validation error wrapped in ErrInvalidEntity if the task
	// data is invalid, and ErrDuplicate if a task with the same ID already
	// exists.
	Insert(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ConditionalUpdateStatus performs the compare-and-set write backing
	// lifecycle transitions: the status is updated only if the stored value
	// still equals expected. Returns ErrStaleState when a concurrent writer
	// changed the status first, and ErrTaskNotFound if the task does not
	// exist. The legality of the edge itself is the caller's concern.
	ConditionalUpdateStatus(ctx context.Context, id uuid.UUID, expected, target domain.TaskStatus) error

	// UpdateDetails modifies the fields that stay mutable after creation:
	// description and due date. Returns ErrTaskNotFound if the task does
	// not exist.
	UpdateDetails(ctx context.Context, id uuid.UUID, description string, dueDate *time.Time) error

	// FindChild retrieves the direct successor of the given parent task.
	// Returns ErrTaskNotFound if no successor exists yet.
	FindChild(ctx context.Context, parentID uuid.UUID) (*domain.Task, error)

	// FindRecurrenceCandidates retrieves recurring tasks that reached
	// completed or skipped and have no successor yet, oldest first, up to
	// limit. Cancelled and non-recurring tasks are never candidates; the
	// scheduler relies on that to keep its scan bounded.
	FindRecurrenceCandidates(ctx context.Context, limit int) ([]*domain.Task, error)

	// FindOverduePending retrieves pending tasks whose due date lies before
	// asOf, oldest first, up to limit.
	FindOverduePending(ctx context.Context, asOf time.Time, limit int) ([]*domain.Task, error)

	// FindByProspect retrieves all tasks attached to the given prospect,
	// newest first.
	FindByProspect(ctx context.Context, prospectID uuid.UUID) ([]*domain.Task, error)

	// ClearProspectRefs nulls the prospect reference on every task pointing
	// at the given prospect and returns the number of tasks updated. Tasks
	// survive the removal of their prospect.
	ClearProspectRefs(ctx context.Context, prospectID uuid.UUID) (int64, error)

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist and
	// ErrTaskHasSuccessor if another task still references it as parent:
	// chain traceability takes precedence over removal.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	//
	// Example usage:
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       txTaskStore := taskStore.WithTx(tx)
	//       return txTaskStore.Insert(ctx, task)
	//   })
	WithTx(tx *sql.Tx) TaskStore
}
