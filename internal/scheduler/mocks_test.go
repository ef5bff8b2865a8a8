package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/events"
	"github.com/stretchr/testify/mock"
)

// MockTaskSource is a testify mock implementation of TaskSource.
type MockTaskSource struct {
	mock.Mock
}

func (m *MockTaskSource) FindRecurrenceCandidates(
	ctx context.Context,
	limit int,
) ([]*domain.Task, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskSource) FindOverduePending(
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

// MockSuccessorGenerator is a testify mock implementation of SuccessorGenerator.
type MockSuccessorGenerator struct {
	mock.Mock
}

func (m *MockSuccessorGenerator) GenerateSuccessor(
	ctx context.Context,
	parentTaskID uuid.UUID,
) (*domain.Task, error) {
	args := m.Called(ctx, parentTaskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

// MockEventEmitter is a testify mock implementation of events.EventEmitter.
type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.TaskEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
