package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/api/shared"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/platform/logger"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/redact"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/service"
)

// Listing endpoints cap their page size to keep responses bounded.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// TaskResponse represents the response data for a task
type TaskResponse struct {
	ID                    string     `json:"id"`
	ProspectID            *string    `json:"prospect_id,omitempty"`
	Title                 string     `json:"title"`
	Description           string     `json:"description,omitempty"`
	TaskType              string     `json:"task_type"`
	Category              string     `json:"category"`
	Priority              int        `json:"priority"`
	Status                string     `json:"status"`
	DueDate               *time.Time `json:"due_date,omitempty"`
	IsAutomated           bool       `json:"is_automated"`
	IsRecurring           bool       `json:"is_recurring"`
	RecurringIntervalDays *int       `json:"recurring_interval_days,omitempty"`
	ParentTaskID          *string    `json:"parent_task_id,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// TaskListResponse represents the response data for task listings.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Count int            `json:"count"`
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if taskService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("taskService cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /api/tasks requests
// It creates a new task, optionally recurring, optionally attached to a prospect.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	// Get logger from context or use default
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	// Parse request body
	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Validate request
	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error", slog.String("error", redact.Error(err)))
		HandleValidationError(w, r, err)
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), service.CreateTaskParams{
		ProspectID:            req.ProspectID,
		Title:                 req.Title,
		Description:           req.Description,
		TaskType:              req.TaskType,
		Category:              req.Category,
		Priority:              req.Priority,
		DueDate:               req.DueDate,
		IsAutomated:           req.IsAutomated,
		RecurringIntervalDays: req.RecurringIntervalDays,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.Bool("is_recurring", task.IsRecurring))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// GetTask handles GET /api/tasks/{id} requests
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// TransitionTask handles POST /api/tasks/{id}/transition requests
// It moves a task along a lifecycle edge. Completing or skipping a recurring
// task triggers generation of the next occurrence.
func (h *TaskHandler) TransitionTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	// Parse request body
	var req TransitionTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("task_id", taskID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Validate request
	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error",
			slog.String("error", redact.Error(err)),
			slog.String("task_id", taskID.String()))
		HandleValidationError(w, r, err)
		return
	}

	task, err := h.taskService.Transition(r.Context(), taskID, domain.TaskStatus(req.Status))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to transition task")
		return
	}

	log.Debug("task transitioned",
		slog.String("task_id", taskID.String()),
		slog.String("status", string(task.Status)))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PATCH /api/tasks/{id} requests
// Only the description and due date are editable after creation.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	// Parse request body
	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("task_id", taskID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Validate request
	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error",
			slog.String("error", redact.Error(err)),
			slog.String("task_id", taskID.String()))
		HandleValidationError(w, r, err)
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), taskID, service.UpdateTaskParams{
		Description:  req.Description,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// GetTaskChain handles GET /api/tasks/{id}/chain requests
// It returns the full recurrence chain containing the task, ordered from the
// root occurrence to the latest.
func (h *TaskHandler) GetTaskChain(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	chain, err := h.taskService.GetChain(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task chain")
		return
	}

	log.Debug("task chain resolved",
		slog.String("task_id", taskID.String()),
		slog.Int("chain_length", len(chain)))
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToListResponse(chain))
}

// ListOverdueTasks handles GET /api/tasks/overdue requests
// It lists pending tasks whose due date has passed, without modifying them.
func (h *TaskHandler) ListOverdueTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	limit, ok := listLimit(w, r, log)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListOverdue(r.Context(), time.Now().UTC(), limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list overdue tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToListResponse(tasks))
}

// ListProspectTasks handles GET /api/prospects/{id}/tasks requests
func (h *TaskHandler) ListProspectTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	prospectID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListByProspect(r.Context(), prospectID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list prospect tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToListResponse(tasks))
}

// DeleteTask handles DELETE /api/tasks/{id} requests
// Deletion is administrative and refused while a successor occurrence still
// references the task as its parent.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	log.Debug("task deleted", slog.String("task_id", taskID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// listLimit reads the optional limit query parameter, applying the default
// and upper bound. It writes an error response and returns false when the
// parameter is malformed.
func listLimit(w http.ResponseWriter, r *http.Request, log *slog.Logger) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxListLimit {
		log.Warn("invalid limit parameter", slog.String("value", raw))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
		return 0, false
	}

	return limit, true
}

// taskToResponse converts a domain.Task to a TaskResponse
func taskToResponse(task *domain.Task) TaskResponse {
	response := TaskResponse{
		ID:                    task.ID.String(),
		Title:                 task.Title,
		Description:           task.Description,
		TaskType:              task.TaskType,
		Category:              task.Category,
		Priority:              task.Priority,
		Status:                string(task.Status),
		DueDate:               task.DueDate,
		IsAutomated:           task.IsAutomated,
		IsRecurring:           task.IsRecurring,
		RecurringIntervalDays: task.RecurringIntervalDays,
		CreatedAt:             task.CreatedAt,
		UpdatedAt:             task.UpdatedAt,
	}

	if task.ProspectID != nil {
		prospectID := task.ProspectID.String()
		response.ProspectID = &prospectID
	}
	if task.ParentTaskID != nil {
		parentTaskID := task.ParentTaskID.String()
		response.ParentTaskID = &parentTaskID
	}

	return response
}

// tasksToListResponse converts a slice of tasks to a TaskListResponse
func tasksToListResponse(tasks []*domain.Task) TaskListResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, taskToResponse(task))
	}

	return TaskListResponse{
		Tasks: responses,
		Count: len(responses),
	}
}
