package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/events"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTestTaskService wires a TaskService with fresh mocks for each test.
func newTestTaskService(
	t *testing.T,
) (TaskService, *MockTaskRepository, *MockProspectRepository, *MockEventEmitter) {
	t.Helper()

	taskRepo := new(MockTaskRepository)
	prospectRepo := new(MockProspectRepository)
	emitter := new(MockEventEmitter)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewTaskService(taskRepo, prospectRepo, emitter, logger)
	require.NoError(t, err)

	return svc, taskRepo, prospectRepo, emitter
}

// newServiceTask builds a task fixture in the given status.
func newServiceTask(t *testing.T, status domain.TaskStatus) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(nil, "Follow up on proposal", "Check whether the quote landed")
	require.NoError(t, err)
	task.Status = status
	return task
}

// newRecurringServiceTask builds a weekly recurring task fixture with a due
// date, in the given status.
func newRecurringServiceTask(t *testing.T, status domain.TaskStatus) *domain.Task {
	t.Helper()

	task := newServiceTask(t, status)
	require.NoError(t, task.EnableRecurrence(7))
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	task.DueDate = &due
	return task
}

func TestNewTaskService(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("rejects nil task repository", func(t *testing.T) {
		svc, err := NewTaskService(nil, new(MockProspectRepository), new(MockEventEmitter), logger)
		assert.Nil(t, svc)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects nil prospect repository", func(t *testing.T) {
		svc, err := NewTaskService(new(MockTaskRepository), nil, new(MockEventEmitter), logger)
		assert.Nil(t, svc)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects nil event emitter", func(t *testing.T) {
		svc, err := NewTaskService(new(MockTaskRepository), new(MockProspectRepository), nil, logger)
		assert.Nil(t, svc)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("accepts nil logger", func(t *testing.T) {
		svc, err := NewTaskService(
			new(MockTaskRepository),
			new(MockProspectRepository),
			new(MockEventEmitter),
			nil,
		)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestCreateTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates a plain task with defaults", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		db, dbMock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		taskRepo.On("DB").Return(db)
		taskRepo.On("WithTx", mock.AnythingOfType("*sql.Tx")).Return(taskRepo)
		taskRepo.On("Insert", mock.Anything, mock.MatchedBy(func(task *domain.Task) bool {
			return task.Title == "Call the harbor office" &&
				task.Status == domain.TaskStatusPending &&
				!task.IsRecurring
		})).Return(nil)

		task, err := svc.CreateTask(ctx, CreateTaskParams{
			Title:       "Call the harbor office",
			Description: "Confirm the berth reservation",
		})

		require.NoError(t, err)
		require.NotNil(t, task)
		assert.Equal(t, "Call the harbor office", task.Title)
		assert.Equal(t, domain.DefaultTaskType, task.TaskType)
		assert.Equal(t, domain.DefaultTaskCategory, task.Category)
		assert.Equal(t, domain.DefaultTaskPriority, task.Priority)
		assert.Equal(t, domain.TaskStatusPending, task.Status)
		assert.Nil(t, task.ProspectID)
		assert.Nil(t, task.ParentTaskID)
		assert.False(t, task.IsRecurring)
		assert.Nil(t, task.RecurringIntervalDays)

		taskRepo.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("creates a recurring task for an existing prospect", func(t *testing.T) {
		svc, taskRepo, prospectRepo, _ := newTestTaskService(t)

		db, dbMock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		prospectID := uuid.New()
		due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		priority := 2

		prospectRepo.On("Exists", mock.Anything, prospectID).Return(true, nil)
		taskRepo.On("DB").Return(db)
		taskRepo.On("WithTx", mock.AnythingOfType("*sql.Tx")).Return(taskRepo)
		taskRepo.On("Insert", mock.Anything, mock.MatchedBy(func(task *domain.Task) bool {
			return task.ProspectID != nil && *task.ProspectID == prospectID &&
				task.IsRecurring &&
				task.RecurringIntervalDays != nil && *task.RecurringIntervalDays == 14 &&
				task.Priority == 2 &&
				task.TaskType == "call" &&
				task.Category == "prospecting"
		})).Return(nil)

		interval := 14
		task, err := svc.CreateTask(ctx, CreateTaskParams{
			ProspectID:            &prospectID,
			Title:                 "Quarterly check-in call",
			TaskType:              "call",
			Category:              "prospecting",
			Priority:              &priority,
			DueDate:               &due,
			RecurringIntervalDays: &interval,
		})

		require.NoError(t, err)
		require.NotNil(t, task)
		assert.True(t, task.IsRecurring)
		require.NotNil(t, task.DueDate)
		assert.True(t, due.Equal(*task.DueDate))

		prospectRepo.AssertExpectations(t)
		taskRepo.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("rejects an unknown prospect", func(t *testing.T) {
		svc, taskRepo, prospectRepo, _ := newTestTaskService(t)

		prospectID := uuid.New()
		prospectRepo.On("Exists", mock.Anything, prospectID).Return(false, nil)

		task, err := svc.CreateTask(ctx, CreateTaskParams{
			ProspectID: &prospectID,
			Title:      "Send intro deck",
		})

		assert.Nil(t, task)
		assert.ErrorIs(t, err, ErrProspectNotFound)
		taskRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("wraps prospect lookup failures", func(t *testing.T) {
		svc, taskRepo, prospectRepo, _ := newTestTaskService(t)

		prospectID := uuid.New()
		lookupErr := errors.New("connection refused")
		prospectRepo.On("Exists", mock.Anything, prospectID).Return(false, lookupErr)

		task, err := svc.CreateTask(ctx, CreateTaskParams{
			ProspectID: &prospectID,
			Title:      "Send intro deck",
		})

		assert.Nil(t, task)
		require.Error(t, err)
		var svcErr *TaskServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "create_task", svcErr.Operation)
		assert.ErrorIs(t, err, lookupErr)
		taskRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("rejects an empty title without touching the store", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		task, err := svc.CreateTask(ctx, CreateTaskParams{Title: ""})

		assert.Nil(t, task)
		assert.ErrorIs(t, err, domain.ErrTaskTitleEmpty)
		taskRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("rejects an out-of-range priority override", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		priority := 9
		task, err := svc.CreateTask(ctx, CreateTaskParams{
			Title:    "Escalate to partner",
			Priority: &priority,
		})

		assert.Nil(t, task)
		assert.ErrorIs(t, err, domain.ErrTaskPriorityOutOfRange)
		taskRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("rejects a non-positive recurrence interval", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		interval := 0
		task, err := svc.CreateTask(ctx, CreateTaskParams{
			Title:                 "Weekly touchpoint",
			RecurringIntervalDays: &interval,
		})

		assert.Nil(t, task)
		assert.ErrorIs(t, err, domain.ErrTaskIntervalRequired)
		taskRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("rolls back when the insert fails", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		db, dbMock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		insertErr := fmt.Errorf("%w: task already exists", store.ErrDuplicate)
		taskRepo.On("DB").Return(db)
		taskRepo.On("WithTx", mock.AnythingOfType("*sql.Tx")).Return(taskRepo)
		taskRepo.On("Insert", mock.Anything, mock.Anything).Return(insertErr)

		task, err := svc.CreateTask(ctx, CreateTaskParams{Title: "Call the harbor office"})

		assert.Nil(t, task)
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		var svcErr *TaskServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "create_task", svcErr.Operation)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestGetTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns the task", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		task := newServiceTask(t, domain.TaskStatusPending)
		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)

		got, err := svc.GetTask(ctx, task.ID)

		require.NoError(t, err)
		assert.Equal(t, task, got)
		taskRepo.AssertExpectations(t)
	})

	t.Run("maps missing tasks to the service sentinel", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		id := uuid.New()
		taskRepo.On("GetByID", mock.Anything, id).Return(nil, store.ErrTaskNotFound)

		got, err := svc.GetTask(ctx, id)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestTransition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("starts a pending task", func(t *testing.T) {
		svc, taskRepo, _, emitter := newTestTaskService(t)

		task := newServiceTask(t, domain.TaskStatusPending)
		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		taskRepo.On(
			"ConditionalUpdateStatus",
			mock.Anything,
			task.ID,
			domain.TaskStatusPending,
			domain.TaskStatusInProgress,
		).Return(nil)

		got, err := svc.Transition(ctx, task.ID, domain.TaskStatusInProgress)

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, domain.TaskStatusInProgress, got.Status)
		emitter.AssertNotCalled(t, "EmitEvent", mock.Anything, mock.Anything)
		taskRepo.AssertExpectations(t)
	})

	t.Run("completing a recurring task emits a recurrence trigger", func(t *testing.T) {
		svc, taskRepo, _, emitter := newTestTaskService(t)

		task := newRecurringServiceTask(t, domain.TaskStatusInProgress)
		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		taskRepo.On(
			"ConditionalUpdateStatus",
			mock.Anything,
			task.ID,
			domain.TaskStatusInProgress,
			domain.TaskStatusCompleted,
		).Return(nil)
		emitter.On("EmitEvent", mock.Anything, mock.MatchedBy(func(event *events.TaskEvent) bool {
			if event.Type != events.EventTypeRecurrenceTriggered {
				return false
			}
			var payload events.RecurrenceTriggeredPayload
			if err := event.UnmarshalPayload(&payload); err != nil {
				return false
			}
			return payload.TaskID == task.ID && payload.DueDate != nil
		})).Return(nil)

		got, err := svc.Transition(ctx, task.ID, domain.TaskStatusCompleted)

		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, got.Status)
		emitter.AssertExpectations(t)
		taskRepo.AssertExpectations(t)
	})

	t.Run("skipping a recurring task also emits a recurrence trigger", func(t *testing.T) {
		svc, taskRepo, _, emitter := newTestTaskService(t)

		task := newRecurringServiceTask(t, domain.TaskStatusInProgress)
		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		taskRepo.On(
			"ConditionalUpdateStatus",
			mock.Anything,
			task.ID,
			domain.TaskStatusInProgress,
			domain.TaskStatusSkipped,
		).Return(nil)
		emitter.On("EmitEvent", mock.Anything, mock.MatchedBy(func(event *events.TaskEvent) bool {
			return event.Type == events.EventTypeRecurrenceTriggered
		})).Return(nil)

		got, err := svc.Transition(ctx, task.ID, domain.TaskStatusSkipped)

		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusSkipped, got.Status)
		emitter.AssertExpectations(t)
	})

	t.Run("cancelling a recurring task never emits", func(t *testing.T) {
		svc, taskRepo, _, emitter := newTestTaskService(t)

		task := newRecurringServiceTask(t, domain.TaskStatusInProgress)
		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		taskRepo.On(
			"ConditionalUpdateStatus",
			mock.Anything,
			task.ID,
			domain.TaskStatusInProgress,
			domain.TaskStatusCancelled,
		).Return(nil)

		got, err := svc.Transition(ctx, task.ID, domain.TaskStatusCancelled)

		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCancelled, got.Status)
		emitter.AssertNotCalled(t, "EmitEvent", mock.Anything, mock.Anything)
	})

	t.Run("completing a non-recurring task never emits", func(t *testing.T) {
		svc, taskRepo, _, emitter := newTestTaskService(t)

		task := newServiceTask(t, domain.TaskStatusInProgress)
		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		taskRepo.On(
			"ConditionalUpdateStatus",
			mock.Anything,
			task.ID,
			domain.TaskStatusInProgress,
			domain.TaskStatusCompleted,
		).Return(nil)

		got, err := svc.Transition(ctx, task.ID, domain.TaskStatusCompleted)

		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, got.Status)
		emitter.AssertNotCalled(t, "EmitEvent", mock.Anything, mock.Anything)
	})

	t.Run("rejects an illegal edge before writing", func(t *testing.T) {
		svc, taskRepo, _, emitter := newTestTaskService(t)

		task := newServiceTask(t, domain.TaskStatusCompleted)
		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)

		got, err := svc.Transition(ctx, task.ID, domain.TaskStatusInProgress)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		taskRepo.AssertNotCalled(
			t,
			"ConditionalUpdateStatus",
			mock.Anything,
			mock.Anything,
			mock.Anything,
			mock.Anything,
		)
		emitter.AssertNotCalled(t, "EmitEvent", mock.Anything, mock.Anything)
	})

	t.Run("maps a lost race to the stale transition sentinel", func(t *testing.T) {
		svc, taskRepo, _, emitter := newTestTaskService(t)

		task := newServiceTask(t, domain.TaskStatusPending)
		staleErr := fmt.Errorf("%w: task %s is cancelled, expected pending", store.ErrStaleState, task.ID)
		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		taskRepo.On(
			"ConditionalUpdateStatus",
			mock.Anything,
			task.ID,
			domain.TaskStatusPending,
			domain.TaskStatusInProgress,
		).Return(staleErr)

		got, err := svc.Transition(ctx, task.ID, domain.TaskStatusInProgress)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrStaleTransition)
		emitter.AssertNotCalled(t, "EmitEvent", mock.Anything, mock.Anything)
	})

	t.Run("emit failure does not fail the transition", func(t *testing.T) {
		svc, taskRepo, _, emitter := newTestTaskService(t)

		task := newRecurringServiceTask(t, domain.TaskStatusInProgress)
		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		taskRepo.On(
			"ConditionalUpdateStatus",
			mock.Anything,
			task.ID,
			domain.TaskStatusInProgress,
			domain.TaskStatusCompleted,
		).Return(nil)
		emitter.On("EmitEvent", mock.Anything, mock.Anything).
			Return(errors.New("handler unavailable"))

		got, err := svc.Transition(ctx, task.ID, domain.TaskStatusCompleted)

		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, got.Status)
		emitter.AssertExpectations(t)
	})

	t.Run("maps missing tasks to the service sentinel", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		id := uuid.New()
		taskRepo.On("GetByID", mock.Anything, id).Return(nil, store.ErrTaskNotFound)

		got, err := svc.Transition(ctx, id, domain.TaskStatusInProgress)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("updates only the description", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		task := newRecurringServiceTask(t, domain.TaskStatusPending)
		originalDue := task.DueDate
		newDescription := "Ping the new contact instead"

		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		taskRepo.On("UpdateDetails", mock.Anything, task.ID, newDescription, originalDue).
			Return(nil)

		got, err := svc.UpdateTask(ctx, task.ID, UpdateTaskParams{
			Description: &newDescription,
		})

		require.NoError(t, err)
		assert.Equal(t, newDescription, got.Description)
		require.NotNil(t, got.DueDate)
		assert.True(t, originalDue.Equal(*got.DueDate))
		taskRepo.AssertExpectations(t)
	})

	t.Run("replaces the due date", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		task := newServiceTask(t, domain.TaskStatusPending)
		newDue := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		taskRepo.On("UpdateDetails", mock.Anything, task.ID, task.Description, &newDue).
			Return(nil)

		got, err := svc.UpdateTask(ctx, task.ID, UpdateTaskParams{DueDate: &newDue})

		require.NoError(t, err)
		require.NotNil(t, got.DueDate)
		assert.True(t, newDue.Equal(*got.DueDate))
		taskRepo.AssertExpectations(t)
	})

	t.Run("clears the due date", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		task := newRecurringServiceTask(t, domain.TaskStatusPending)
		require.NotNil(t, task.DueDate)

		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		taskRepo.On("UpdateDetails", mock.Anything, task.ID, task.Description, (*time.Time)(nil)).
			Return(nil)

		got, err := svc.UpdateTask(ctx, task.ID, UpdateTaskParams{ClearDueDate: true})

		require.NoError(t, err)
		assert.Nil(t, got.DueDate)
		taskRepo.AssertExpectations(t)
	})

	t.Run("maps missing tasks to the service sentinel", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		id := uuid.New()
		taskRepo.On("GetByID", mock.Anything, id).Return(nil, store.ErrTaskNotFound)

		got, err := svc.UpdateTask(ctx, id, UpdateTaskParams{})

		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestGetChain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("single occurrence is its own chain", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		task := newServiceTask(t, domain.TaskStatusPending)
		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		taskRepo.On("FindChild", mock.Anything, task.ID).Return(nil, store.ErrTaskNotFound)

		chain, err := svc.GetChain(ctx, task.ID)

		require.NoError(t, err)
		require.Len(t, chain, 1)
		assert.Equal(t, task.ID, chain[0].ID)
	})

	t.Run("walks to the root and to the latest occurrence", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		root := newRecurringServiceTask(t, domain.TaskStatusCompleted)
		middle := newRecurringServiceTask(t, domain.TaskStatusCompleted)
		middle.ParentTaskID = &root.ID
		latest := newRecurringServiceTask(t, domain.TaskStatusPending)
		latest.ParentTaskID = &middle.ID

		taskRepo.On("GetByID", mock.Anything, middle.ID).Return(middle, nil)
		taskRepo.On("GetByID", mock.Anything, root.ID).Return(root, nil)
		taskRepo.On("FindChild", mock.Anything, middle.ID).Return(latest, nil)
		taskRepo.On("FindChild", mock.Anything, latest.ID).Return(nil, store.ErrTaskNotFound)

		chain, err := svc.GetChain(ctx, middle.ID)

		require.NoError(t, err)
		require.Len(t, chain, 3)
		assert.Equal(t, root.ID, chain[0].ID)
		assert.Equal(t, middle.ID, chain[1].ID)
		assert.Equal(t, latest.ID, chain[2].ID)
		taskRepo.AssertExpectations(t)
	})

	t.Run("detects a parent cycle", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		first := newServiceTask(t, domain.TaskStatusPending)
		second := newServiceTask(t, domain.TaskStatusPending)
		first.ParentTaskID = &second.ID
		second.ParentTaskID = &first.ID

		taskRepo.On("GetByID", mock.Anything, first.ID).Return(first, nil)
		taskRepo.On("GetByID", mock.Anything, second.ID).Return(second, nil)

		chain, err := svc.GetChain(ctx, first.ID)

		assert.Nil(t, chain)
		require.Error(t, err)
		var svcErr *TaskServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Contains(t, svcErr.Message, "cycle")
	})

	t.Run("reports a dangling parent reference as corruption, not not-found", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		parentID := uuid.New()
		task := newServiceTask(t, domain.TaskStatusPending)
		task.ParentTaskID = &parentID

		taskRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		taskRepo.On("GetByID", mock.Anything, parentID).Return(nil, store.ErrTaskNotFound)

		chain, err := svc.GetChain(ctx, task.ID)

		assert.Nil(t, chain)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrTaskNotFound)
		var svcErr *TaskServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "get_chain", svcErr.Operation)
	})

	t.Run("maps a missing requested task to the service sentinel", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		id := uuid.New()
		taskRepo.On("GetByID", mock.Anything, id).Return(nil, store.ErrTaskNotFound)

		chain, err := svc.GetChain(ctx, id)

		assert.Nil(t, chain)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestListOverdue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("passes the cutoff through", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		asOf := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
		tasks := []*domain.Task{newServiceTask(t, domain.TaskStatusPending)}
		taskRepo.On("FindOverduePending", mock.Anything, asOf, 25).Return(tasks, nil)

		got, err := svc.ListOverdue(ctx, asOf, 25)

		require.NoError(t, err)
		assert.Equal(t, tasks, got)
		taskRepo.AssertExpectations(t)
	})

	t.Run("defaults a zero cutoff to now", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		taskRepo.On(
			"FindOverduePending",
			mock.Anything,
			mock.MatchedBy(func(asOf time.Time) bool { return !asOf.IsZero() }),
			10,
		).Return([]*domain.Task{}, nil)

		got, err := svc.ListOverdue(ctx, time.Time{}, 10)

		require.NoError(t, err)
		assert.Empty(t, got)
		taskRepo.AssertExpectations(t)
	})

	t.Run("wraps store failures", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		listErr := errors.New("connection reset")
		taskRepo.On("FindOverduePending", mock.Anything, mock.Anything, 10).
			Return(nil, listErr)

		got, err := svc.ListOverdue(ctx, time.Now(), 10)

		assert.Nil(t, got)
		require.Error(t, err)
		assert.ErrorIs(t, err, listErr)
	})
}

func TestListByProspect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns the prospect's tasks", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		prospectID := uuid.New()
		tasks := []*domain.Task{
			newServiceTask(t, domain.TaskStatusPending),
			newServiceTask(t, domain.TaskStatusCompleted),
		}
		taskRepo.On("FindByProspect", mock.Anything, prospectID).Return(tasks, nil)

		got, err := svc.ListByProspect(ctx, prospectID)

		require.NoError(t, err)
		assert.Equal(t, tasks, got)
	})

	t.Run("wraps store failures", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		prospectID := uuid.New()
		listErr := errors.New("connection reset")
		taskRepo.On("FindByProspect", mock.Anything, prospectID).Return(nil, listErr)

		got, err := svc.ListByProspect(ctx, prospectID)

		assert.Nil(t, got)
		require.Error(t, err)
		var svcErr *TaskServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "list_by_prospect", svcErr.Operation)
	})
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("deletes the task", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		id := uuid.New()
		taskRepo.On("Delete", mock.Anything, id).Return(nil)

		err := svc.DeleteTask(ctx, id)

		require.NoError(t, err)
		taskRepo.AssertExpectations(t)
	})

	t.Run("refuses while a successor references the task", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		id := uuid.New()
		taskRepo.On("Delete", mock.Anything, id).
			Return(fmt.Errorf("%w: child row exists", store.ErrTaskHasSuccessor))

		err := svc.DeleteTask(ctx, id)

		assert.ErrorIs(t, err, ErrTaskHasSuccessor)
	})

	t.Run("maps missing tasks to the service sentinel", func(t *testing.T) {
		svc, taskRepo, _, _ := newTestTaskService(t)

		id := uuid.New()
		taskRepo.On("Delete", mock.Anything, id).Return(store.ErrTaskNotFound)

		err := svc.DeleteTask(ctx, id)

		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestNewTaskServiceError(t *testing.T) {
	t.Parallel()

	t.Run("nil error yields nil", func(t *testing.T) {
		assert.NoError(t, NewTaskServiceError("op", "message", nil))
	})

	t.Run("service sentinels pass through unchanged", func(t *testing.T) {
		for _, sentinel := range []error{
			ErrTaskNotFound,
			ErrProspectNotFound,
			ErrTaskHasSuccessor,
			ErrStaleTransition,
		} {
			err := NewTaskServiceError("op", "message", sentinel)
			assert.Equal(t, sentinel, err)
		}
	})

	t.Run("store sentinels map to service sentinels", func(t *testing.T) {
		cases := []struct {
			in   error
			want error
		}{
			{store.ErrTaskNotFound, ErrTaskNotFound},
			{fmt.Errorf("%w: extra context", store.ErrTaskNotFound), ErrTaskNotFound},
			{store.ErrProspectNotFound, ErrProspectNotFound},
			{store.ErrTaskHasSuccessor, ErrTaskHasSuccessor},
			{store.ErrStaleState, ErrStaleTransition},
		}
		for _, tc := range cases {
			err := NewTaskServiceError("op", "message", tc.in)
			assert.Equal(t, tc.want, err)
		}
	})

	t.Run("invalid transition keeps its domain error", func(t *testing.T) {
		edgeErr := fmt.Errorf("%w: completed to pending", domain.ErrInvalidTransition)
		err := NewTaskServiceError("transition", "illegal lifecycle transition", edgeErr)
		assert.Equal(t, edgeErr, err)
	})

	t.Run("other errors are wrapped with operation context", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewTaskServiceError("create_task", "failed to save task", cause)

		var svcErr *TaskServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "create_task", svcErr.Operation)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "task service create_task failed")
	})
}
