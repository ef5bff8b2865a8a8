package followup

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockTaskRepository mocks the TaskRepository interface
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
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

func (m *MockTaskRepository) Insert(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) ClearProspectRefs(
	ctx context.Context,
	prospectID uuid.UUID,
) (int64, error) {
	args := m.Called(ctx, prospectID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) WithTx(tx *sql.Tx) TaskRepository {
	args := m.Called(tx)
	return args.Get(0).(TaskRepository)
}

func (m *MockTaskRepository) DB() *sql.DB {
	args := m.Called()
	return args.Get(0).(*sql.DB)
}

// MockClaimRepository mocks the ClaimRepository interface
type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) TryClaim(
	ctx context.Context,
	parentTaskID uuid.UUID,
) (bool, error) {
	args := m.Called(ctx, parentTaskID)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimRepository) Lock(ctx context.Context, parentTaskID uuid.UUID) error {
	args := m.Called(ctx, parentTaskID)
	return args.Error(0)
}

func (m *MockClaimRepository) WithTx(tx *sql.Tx) ClaimRepository {
	args := m.Called(tx)
	return args.Get(0).(ClaimRepository)
}

// MockProspectRepository mocks the ProspectRepository interface
type MockProspectRepository struct {
	mock.Mock
}

func (m *MockProspectRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
