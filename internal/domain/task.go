package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Defaults applied when a task is created without explicit values.
const (
	DefaultTaskType     = "general"
	DefaultTaskCategory = "sales"
	DefaultTaskPriority = 3
)

// Priority bounds; 1 is the highest urgency.
const (
	MinTaskPriority = 1
	MaxTaskPriority = 4
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskPriorityOutOfRange is returned when a task's priority is outside [1,4].
	ErrTaskPriorityOutOfRange = errors.New("task priority must be between 1 and 4")

	// ErrInvalidTaskStatus is returned when a task status is not one of the known values.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrTaskIntervalRequired is returned when a recurring task has no positive interval.
	ErrTaskIntervalRequired = errors.New("recurring task requires a positive interval in days")

	// ErrTaskIntervalForbidden is returned when a non-recurring task carries an interval.
	ErrTaskIntervalForbidden = errors.New("non-recurring task cannot have a recurrence interval")
)

// Task represents one occurrence of a follow-up activity in the sales
// pipeline. Occurrences generated from a recurring predecessor carry the
// predecessor's ID in ParentTaskID, chaining back to the manually created
// root. The prospect reference is weak: if the prospect is removed the
// reference is cleared and the task survives.
type Task struct {
	ID                    uuid.UUID  `json:"id"`
	ProspectID            *uuid.UUID `json:"prospect_id,omitempty"`
	Title                 string     `json:"title"`
	Description           string     `json:"description,omitempty"`
	TaskType              string     `json:"task_type"`
	Category              string     `json:"category"`
	Priority              int        `json:"priority"`
	Status                TaskStatus `json:"status"`
	DueDate               *time.Time `json:"due_date,omitempty"`
	IsAutomated           bool       `json:"is_automated"`
	IsRecurring           bool       `json:"is_recurring"`
	RecurringIntervalDays *int       `json:"recurring_interval_days,omitempty"`
	ParentTaskID          *uuid.UUID `json:"parent_task_id,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// NewTask creates a new Task with the given prospect reference, title, and
// description. It generates a new UUID for the task ID, applies the standard
// defaults (general type, sales category, priority 3, pending status), and
// sets the creation/update timestamps.
// Returns an error if validation fails.
func NewTask(prospectID *uuid.UUID, title, description string) (*Task, error) {
	task := &Task{
		ID:          uuid.New(),
		ProspectID:  prospectID,
		Title:       title,
		Description: description,
		TaskType:    DefaultTaskType,
		Category:    DefaultTaskCategory,
		Priority:    DefaultTaskPriority,
		Status:      TaskStatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if t.Priority < MinTaskPriority || t.Priority > MaxTaskPriority {
		return ErrTaskPriorityOutOfRange
	}

	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}

	if t.IsRecurring {
		if t.RecurringIntervalDays == nil || *t.RecurringIntervalDays < 1 {
			return ErrTaskIntervalRequired
		}
	} else if t.RecurringIntervalDays != nil {
		return ErrTaskIntervalForbidden
	}

	return nil
}

// EnableRecurrence marks the task as recurring with the given interval in
// days, so that completing or skipping it generates a successor occurrence.
// Returns an error if the interval is not positive.
func (t *Task) EnableRecurrence(intervalDays int) error {
	if intervalDays < 1 {
		return ErrTaskIntervalRequired
	}

	t.IsRecurring = true
	t.RecurringIntervalDays = &intervalDays
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// TransitionTo moves the task to the target status if the lifecycle permits
// the edge, and updates the UpdatedAt timestamp. Terminal statuses permit no
// further transitions. Returns an error wrapping ErrInvalidTransition with
// the attempted edge otherwise.
func (t *Task) TransitionTo(target TaskStatus) error {
	if !target.IsValid() {
		return ErrInvalidTaskStatus
	}

	if !t.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.Status, target)
	}

	t.Status = target
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateDetails edits the fields that remain mutable after creation:
// description and due date. Chain membership, priority, and classification
// tags are fixed once the task exists.
func (t *Task) UpdateDetails(description string, dueDate *time.Time) {
	t.Description = description
	t.DueDate = dueDate
	t.UpdatedAt = time.Now().UTC()
}

// IsOverdue reports whether the task is still pending past its due date.
// Tasks without a due date are never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return t.Status == TaskStatusPending && t.DueDate.Before(now)
}
