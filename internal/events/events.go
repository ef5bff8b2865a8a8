package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published by the task engine.
const (
	// EventTypeRecurrenceTriggered is emitted when a recurring task reaches
	// completed or skipped, signaling that its chain should advance.
	EventTypeRecurrenceTriggered = "recurrence_triggered"

	// EventTypeOverdueFlagged is emitted for pending tasks whose due date
	// has passed. It surfaces the task for external notification; the task
	// itself is not modified.
	EventTypeOverdueFlagged = "overdue_flagged"
)

// TaskEvent represents something that happened to a task that other
// components may react to. It carries the event-specific data as serialized
// JSON so emitters have no direct dependencies on handler packages.
//
// Delivery is at-least-once: a trigger may be observed both on the fast
// path (emitted during the transition) and by a later scheduler scan, so
// handlers must tolerate duplicates.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates what happened, one of the EventType constants
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// RecurrenceTriggeredPayload is the payload of a recurrence trigger event.
type RecurrenceTriggeredPayload struct {
	// TaskID identifies the terminal recurring task whose chain should
	// advance.
	TaskID uuid.UUID `json:"task_id"`

	// CompletedAt records when the task reached its terminal status.
	CompletedAt time.Time `json:"completed_at"`

	// DueDate is the task's own due date, if it had one. The successor's
	// schedule anchors on it.
	DueDate *time.Time `json:"due_date,omitempty"`
}

// OverdueFlaggedPayload is the payload of an overdue flag event.
type OverdueFlaggedPayload struct {
	// TaskID identifies the pending task that is past due.
	TaskID uuid.UUID `json:"task_id"`

	// DueDate is the due date that has passed.
	DueDate time.Time `json:"due_date"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *TaskEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskEvent creates a new TaskEvent with the specified type and payload.
func NewTaskEvent(eventType string, payload interface{}) (*TaskEvent, error) {
	// Serialize the payload to JSON
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// NewRecurrenceTriggeredEvent creates the event emitted when a recurring
// task's terminal transition should advance its chain.
func NewRecurrenceTriggeredEvent(taskID uuid.UUID, completedAt time.Time, dueDate *time.Time) (*TaskEvent, error) {
	return NewTaskEvent(EventTypeRecurrenceTriggered, RecurrenceTriggeredPayload{
		TaskID:      taskID,
		CompletedAt: completedAt,
		DueDate:     dueDate,
	})
}

// NewOverdueFlaggedEvent creates the event emitted when a pending task is
// observed past its due date.
func NewOverdueFlaggedEvent(taskID uuid.UUID, dueDate time.Time) (*TaskEvent, error) {
	return NewTaskEvent(EventTypeOverdueFlagged, OverdueFlaggedPayload{
		TaskID:  taskID,
		DueDate: dueDate,
	})
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}
