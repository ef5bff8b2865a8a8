// Package followup advances recurrence chains: when a recurring task is
// completed or skipped, it builds and persists the next occurrence exactly
// once, no matter how many times or from how many processes the trigger
// arrives.
package followup

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
)

// Generator creates successor occurrences for terminal recurring tasks.
type Generator interface {
	// GenerateSuccessor advances the recurrence chain of the given parent
	// task by one occurrence.
	//
	// The operation claims the parent, builds the successor from the
	// parent's fields, and persists both the claim and the successor in a
	// single transaction. Repeated and concurrent invocations for the same
	// parent are safe: at most one successor ever commits.
	//
	// Parameters:
	//   - ctx: Context for the operation, which can include correlation ID and cancellation
	//   - parentTaskID: UUID of the completed or skipped recurring task
	//
	// Returns:
	//   - (*domain.Task, nil): The newly persisted successor occurrence
	//   - (nil, ErrAlreadyClaimed): A successor already exists for this parent
	//   - (nil, ErrNotEligible): The parent is not recurring or its status
	//     does not trigger recurrence (cancellation ends a chain)
	//   - (nil, ErrParentNotFound): The parent task no longer exists
	//   - (nil, error): Any other error, typically from the database; the
	//     parent remains a candidate for the next scheduler pass
	//
	// Error Handling:
	//   - ErrAlreadyClaimed is the normal outcome of a duplicate trigger and
	//     callers should treat it as success
	//   - Persistence failures roll back the claim together with the
	//     successor, so the chain is never left half-advanced
	GenerateSuccessor(ctx context.Context, parentTaskID uuid.UUID) (*domain.Task, error)
}

// Common error types for the follow-up generator
var (
	// ErrAlreadyClaimed indicates that the parent task's successor was
	// already claimed and persisted. This is the expected outcome of a
	// duplicate trigger, not a failure.
	ErrAlreadyClaimed = errors.New("successor already claimed for parent task")

	// ErrNotEligible indicates that the task cannot have a successor:
	// it is not recurring, carries no interval, or its status does not
	// trigger recurrence.
	ErrNotEligible = errors.New("task is not eligible for a successor")

	// ErrParentNotFound indicates that the parent task does not exist.
	ErrParentNotFound = errors.New("parent task not found")
)

// ServiceError wraps errors from the follow-up generator with additional
// context. This allows consumers to differentiate between different types of
// failures using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "generate_successor")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewGenerateError creates a ServiceError for the generate_successor
// operation.
func NewGenerateError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "generate_successor",
		Message:   message,
		Err:       err,
	}
}
