package domain

// TaskStatus represents the lifecycle state of a task occurrence
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusSkipped    TaskStatus = "skipped"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// taskStatusTransitions defines the legal lifecycle edges. A status with no
// entry is terminal: no further transition is permitted from it.
var taskStatusTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:    {TaskStatusInProgress, TaskStatusCancelled},
	TaskStatusInProgress: {TaskStatusCompleted, TaskStatusSkipped, TaskStatusCancelled},
}

// IsValid checks if the given status is one of the known task statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted,
		TaskStatusSkipped, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status permits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusSkipped, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the lifecycle permits moving from s to
// target in a single step.
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	for _, allowed := range taskStatusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TriggersRecurrence reports whether entering this status closes an
// occurrence in a way that continues its chain. Cancellation is terminal
// but ends the chain instead of advancing it.
func (s TaskStatus) TriggersRecurrence() bool {
	return s == TaskStatusCompleted || s == TaskStatusSkipped
}
