package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/config"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTaskService returns canned data so the router can be exercised
// without a database.
type stubTaskService struct {
	task *domain.Task
}

func (s *stubTaskService) CreateTask(_ context.Context, _ service.CreateTaskParams) (*domain.Task, error) {
	return s.task, nil
}

func (s *stubTaskService) GetTask(_ context.Context, _ uuid.UUID) (*domain.Task, error) {
	return s.task, nil
}

func (s *stubTaskService) Transition(
	_ context.Context,
	_ uuid.UUID,
	_ domain.TaskStatus,
) (*domain.Task, error) {
	return s.task, nil
}

func (s *stubTaskService) UpdateTask(
	_ context.Context,
	_ uuid.UUID,
	_ service.UpdateTaskParams,
) (*domain.Task, error) {
	return s.task, nil
}

func (s *stubTaskService) GetChain(_ context.Context, _ uuid.UUID) ([]*domain.Task, error) {
	return []*domain.Task{s.task}, nil
}

func (s *stubTaskService) ListOverdue(_ context.Context, _ time.Time, _ int) ([]*domain.Task, error) {
	return []*domain.Task{s.task}, nil
}

func (s *stubTaskService) ListByProspect(_ context.Context, _ uuid.UUID) ([]*domain.Task, error) {
	return []*domain.Task{s.task}, nil
}

func (s *stubTaskService) DeleteTask(_ context.Context, _ uuid.UUID) error {
	return nil
}

func newRouterTestApplication(t *testing.T) *application {
	t.Helper()

	task, err := domain.NewTask(nil, "Call about renewal", "Quarterly contract renewal call")
	require.NoError(t, err)

	return &application{
		config:      &config.Config{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		taskService: &stubTaskService{task: task},
	}
}

func TestSetupRouterRoutes(t *testing.T) {
	app := newRouterTestApplication(t)
	router := app.setupRouter()
	taskID := uuid.New().String()

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{
			name:           "health check",
			method:         http.MethodGet,
			path:           "/health",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "create task",
			method:         http.MethodPost,
			path:           "/api/tasks",
			body:           `{"title": "Call about renewal"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "get task",
			method:         http.MethodGet,
			path:           "/api/tasks/" + taskID,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "update task",
			method:         http.MethodPatch,
			path:           "/api/tasks/" + taskID,
			body:           `{"description": "Reschedule for next week"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "delete task",
			method:         http.MethodDelete,
			path:           "/api/tasks/" + taskID,
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "transition task",
			method:         http.MethodPost,
			path:           "/api/tasks/" + taskID + "/transition",
			body:           `{"status": "in_progress"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "get task chain",
			method:         http.MethodGet,
			path:           "/api/tasks/" + taskID + "/chain",
			expectedStatus: http.StatusOK,
		},
		{
			// The fixed path must win over the {id} wildcard; losing
			// would surface as a 400 from UUID parsing
			name:           "list overdue tasks",
			method:         http.MethodGet,
			path:           "/api/tasks/overdue",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "list prospect tasks",
			method:         http.MethodGet,
			path:           "/api/prospects/" + uuid.New().String() + "/tasks",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "malformed task ID",
			method:         http.MethodGet,
			path:           "/api/tasks/not-a-uuid",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown route",
			method:         http.MethodGet,
			path:           "/api/nothing",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}

			req := httptest.NewRequest(tc.method, tc.path, body)
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
		})
	}
}

func TestSetupRouterHealthBody(t *testing.T) {
	app := newRouterTestApplication(t)
	router := app.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestSetupRouterReturnsTaskPayload(t *testing.T) {
	app := newRouterTestApplication(t)
	router := app.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Call about renewal")
	assert.Contains(t, rr.Body.String(), `"status":"pending"`)
}
