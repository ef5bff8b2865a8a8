// Package recurrence computes successor occurrences for recurring tasks.
// It is purely computational: storage, deduplication, and event handling
// belong to the callers.
package recurrence

import (
	"errors"
	"time"

	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
)

// Common errors
var (
	ErrNilTask       = errors.New("task cannot be nil")
	ErrNotRecurring  = errors.New("task is not recurring")
	ErrNoInterval    = errors.New("recurring task has no positive interval")
	ErrNotTriggering = errors.New("task status does not trigger recurrence")
)

// Service defines the interface for recurrence computations
type Service interface {
	// NextOccurrence builds the successor occurrence for a terminal
	// recurring task. The successor is returned unpersisted.
	NextOccurrence(parent *domain.Task, now time.Time) (*domain.Task, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct{}

// NewDefaultService creates a new recurrence service
func NewDefaultService() Service {
	return &defaultService{}
}

// NextOccurrence implements the Service interface for successor construction
func (s *defaultService) NextOccurrence(parent *domain.Task, now time.Time) (*domain.Task, error) {
	// Validate inputs
	if parent == nil {
		return nil, ErrNilTask
	}

	if !parent.IsRecurring {
		return nil, ErrNotRecurring
	}

	if parent.RecurringIntervalDays == nil || *parent.RecurringIntervalDays < 1 {
		return nil, ErrNoInterval
	}

	// Only completion and skip advance a chain. Cancellation is terminal
	// too, but it ends the chain without a successor.
	if !parent.Status.TriggersRecurrence() {
		return nil, ErrNotTriggering
	}

	return buildSuccessor(parent, now), nil
}
