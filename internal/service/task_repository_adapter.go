package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/store"
)

// NewTaskRepositoryAdapter creates a new adapter that allows a store.TaskStore
// to be used where a TaskRepository is expected. The *sql.DB is carried
// alongside the store so services can open transactions through DB().
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

// Insert implements TaskRepository.Insert
func (a *taskRepositoryAdapter) Insert(ctx context.Context, task *domain.Task) error {
	return a.taskStore.Insert(ctx, task)
}

// GetByID implements TaskRepository.GetByID
func (a *taskRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return a.taskStore.GetByID(ctx, id)
}

// ConditionalUpdateStatus implements TaskRepository.ConditionalUpdateStatus
func (a *taskRepositoryAdapter) ConditionalUpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	expected, target domain.TaskStatus,
) error {
	return a.taskStore.ConditionalUpdateStatus(ctx, id, expected, target)
}

// UpdateDetails implements TaskRepository.UpdateDetails
func (a *taskRepositoryAdapter) UpdateDetails(
	ctx context.Context,
	id uuid.UUID,
	description string,
	dueDate *time.Time,
) error {
	return a.taskStore.UpdateDetails(ctx, id, description, dueDate)
}

// FindChild implements TaskRepository.FindChild
func (a *taskRepositoryAdapter) FindChild(ctx context.Context, parentID uuid.UUID) (*domain.Task, error) {
	return a.taskStore.FindChild(ctx, parentID)
}

// FindOverduePending implements TaskRepository.FindOverduePending
func (a *taskRepositoryAdapter) FindOverduePending(
	ctx context.Context,
	asOf time.Time,
	limit int,
) ([]*domain.Task, error) {
	return a.taskStore.FindOverduePending(ctx, asOf, limit)
}

// FindByProspect implements TaskRepository.FindByProspect
func (a *taskRepositoryAdapter) FindByProspect(
	ctx context.Context,
	prospectID uuid.UUID,
) ([]*domain.Task, error) {
	return a.taskStore.FindByProspect(ctx, prospectID)
}

// Delete implements TaskRepository.Delete
func (a *taskRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	return a.taskStore.Delete(ctx, id)
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
