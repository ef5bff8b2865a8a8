package followup

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/store"
)

// TaskRepository defines the task persistence operations the generator
// needs, with transaction support.
type TaskRepository interface {
	// GetByID retrieves a task by its unique ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// FindChild retrieves the direct successor of the given parent task.
	FindChild(ctx context.Context, parentID uuid.UUID) (*domain.Task, error)

	// Insert saves a new task occurrence.
	Insert(ctx context.Context, task *domain.Task) error

	// ClearProspectRefs nulls the prospect reference on every task pointing
	// at the given prospect and returns the number of tasks updated.
	ClearProspectRefs(ctx context.Context, prospectID uuid.UUID) (int64, error)

	// WithTx returns a new repository instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskRepository

	// DB returns the underlying database connection.
	DB() *sql.DB
}

// ClaimRepository defines the claim-record operations the generator needs,
// with transaction support.
type ClaimRepository interface {
	// TryClaim atomically records the claim for the given parent task,
	// reporting true exactly once per parent.
	TryClaim(ctx context.Context, parentTaskID uuid.UUID) (bool, error)

	// Lock acquires a row lock on an existing claim for the duration of the
	// surrounding transaction.
	Lock(ctx context.Context, parentTaskID uuid.UUID) error

	// WithTx returns a new repository instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ClaimRepository
}

// ProspectRepository defines the read-only prospect registry view the
// generator needs.
type ProspectRepository interface {
	// Exists reports whether a prospect record with the given ID is present.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// NewTaskRepositoryAdapter creates a new adapter that allows a
// store.TaskStore to be used where a TaskRepository is expected.
func NewTaskRepositoryAdapter(taskStore store.TaskStore, db *sql.DB) TaskRepository {
	return &taskRepositoryAdapter{
		taskStore: taskStore,
		db:        db,
	}
}

// taskRepositoryAdapter adapts a store.TaskStore to the TaskRepository interface
type taskRepositoryAdapter struct {
	taskStore store.TaskStore
	db        *sql.DB
}

// GetByID implements TaskRepository.GetByID
func (a *taskRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return a.taskStore.GetByID(ctx, id)
}

// FindChild implements TaskRepository.FindChild
func (a *taskRepositoryAdapter) FindChild(ctx context.Context, parentID uuid.UUID) (*domain.Task, error) {
	return a.taskStore.FindChild(ctx, parentID)
}

// Insert implements TaskRepository.Insert
func (a *taskRepositoryAdapter) Insert(ctx context.Context, task *domain.Task) error {
	return a.taskStore.Insert(ctx, task)
}

// ClearProspectRefs implements TaskRepository.ClearProspectRefs
func (a *taskRepositoryAdapter) ClearProspectRefs(
	ctx context.Context,
	prospectID uuid.UUID,
) (int64, error) {
	return a.taskStore.ClearProspectRefs(ctx, prospectID)
}

// WithTx implements TaskRepository.WithTx
func (a *taskRepositoryAdapter) WithTx(tx *sql.Tx) TaskRepository {
	return &taskRepositoryAdapter{
		taskStore: a.taskStore.WithTx(tx),
		db:        a.db,
	}
}

// DB implements TaskRepository.DB
func (a *taskRepositoryAdapter) DB() *sql.DB {
	return a.db
}

// NewClaimRepositoryAdapter creates a new adapter that allows a
// store.ClaimStore to be used where a ClaimRepository is expected.
func NewClaimRepositoryAdapter(claimStore store.ClaimStore) ClaimRepository {
	return &claimRepositoryAdapter{claimStore: claimStore}
}

// claimRepositoryAdapter adapts a store.ClaimStore to the ClaimRepository interface
type claimRepositoryAdapter struct {
	claimStore store.ClaimStore
}

// TryClaim implements ClaimRepository.TryClaim
func (a *claimRepositoryAdapter) TryClaim(
	ctx context.Context,
	parentTaskID uuid.UUID,
) (bool, error) {
	return a.claimStore.TryClaim(ctx, parentTaskID)
}

// Lock implements ClaimRepository.Lock
func (a *claimRepositoryAdapter) Lock(ctx context.Context, parentTaskID uuid.UUID) error {
	return a.claimStore.Lock(ctx, parentTaskID)
}

// WithTx implements ClaimRepository.WithTx
func (a *claimRepositoryAdapter) WithTx(tx *sql.Tx) ClaimRepository {
	return &claimRepositoryAdapter{claimStore: a.claimStore.WithTx(tx)}
}

// NewProspectRepositoryAdapter creates a new adapter that allows a
// store.ProspectStore to be used where a ProspectRepository is expected.
func NewProspectRepositoryAdapter(prospectStore store.ProspectStore) ProspectRepository {
	return &prospectRepositoryAdapter{prospectStore: prospectStore}
}

// prospectRepositoryAdapter adapts a store.ProspectStore to the ProspectRepository interface
type prospectRepositoryAdapter struct {
	prospectStore store.ProspectStore
}

// Exists implements ProspectRepository.Exists
func (a *prospectRepositoryAdapter) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return a.prospectStore.Exists(ctx, id)
}
