package api

import (
	"time"

	"github.com/google/uuid"
)

// Common request/response structures

// CreateTaskRequest defines the payload for the task creation endpoint.
// Omitted optional fields fall back to the task defaults (general type,
// sales category, priority 3).
type CreateTaskRequest struct {
	ProspectID            *uuid.UUID `json:"prospect_id,omitempty"`
	Title                 string     `json:"title"                             validate:"required,max=500"`
	Description           string     `json:"description,omitempty"             validate:"omitempty,max=5000"`
	TaskType              string     `json:"task_type,omitempty"               validate:"omitempty,max=100"`
	Category              string     `json:"category,omitempty"                validate:"omitempty,max=100"`
	Priority              *int       `json:"priority,omitempty"                validate:"omitempty,min=1,max=4"`
	DueDate               *time.Time `json:"due_date,omitempty"`
	IsAutomated           bool       `json:"is_automated,omitempty"`
	RecurringIntervalDays *int       `json:"recurring_interval_days,omitempty" validate:"omitempty,min=1"`
}

// TransitionTaskRequest defines the payload for the lifecycle transition
// endpoint. Whether the edge from the task's current status is legal is
// decided by the task lifecycle, not by request validation.
type TransitionTaskRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed skipped cancelled"`
}

// UpdateTaskRequest defines the payload for the task edit endpoint. Only
// description and due date are editable after creation. A nil field leaves
// the current value untouched; ClearDueDate removes the due date outright
// and takes precedence over DueDate.
type UpdateTaskRequest struct {
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	ClearDueDate bool       `json:"clear_due_date,omitempty"`
}
