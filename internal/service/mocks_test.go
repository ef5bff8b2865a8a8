package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/events"
	"github.com/stretchr/testify/mock"
)

// MockTaskRepository mocks the TaskRepository interface
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Insert(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) ConditionalUpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	expected, target domain.TaskStatus,
) error {
	args := m.Called(ctx, id, expected, target)
	return args.Error(0)
}

func (m *MockTaskRepository) UpdateDetails(
	ctx context.Context,
	id uuid.UUID,
	description string,
	dueDate *time.Time,
) error {
	args := m.Called(ctx, id, description, dueDate)
	return args.Error(0)
}

func (m *MockTaskRepository) FindChild(
	ctx context.Context,
	parentID uuid.UUID,
) (*domain.Task, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) FindOverduePending(
	ctx context.Context,
	asOf time.Time,
	limit int,
) ([]*domain.Task, error) {
	args := m.Called(ctx, asOf, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) FindByProspect(
	ctx context.Context,
	prospectID uuid.UUID,
) ([]*domain.Task, error) {
	args := m.Called(ctx, prospectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) WithTx(tx *sql.Tx) TaskRepository {
	args := m.Called(tx)
	return args.Get(0).(TaskRepository)
}

func (m *MockTaskRepository) DB() *sql.DB {
	args := m.Called()
	return args.Get(0).(*sql.DB)
}

// MockProspectRepository mocks the ProspectRepository interface
type MockProspectRepository struct {
	mock.Mock
}

func (m *MockProspectRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockEventEmitter mocks the events.EventEmitter interface
type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.TaskEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
