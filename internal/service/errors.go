package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrTaskNotFound indicates that the requested task does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrProspectNotFound indicates that the referenced prospect does not
	// exist in the registry. Returned when creating a task against an
	// unknown prospect. API layer should map this to HTTP 404 Not Found.
	ErrProspectNotFound = errors.New("prospect not found")

	// ErrTaskHasSuccessor indicates that a task cannot be deleted because a
	// later occurrence in its recurrence chain still references it as
	// parent. API layer should map this to HTTP 409 Conflict.
	ErrTaskHasSuccessor = errors.New("task has a successor occurrence")

	// ErrStaleTransition indicates that a lifecycle transition lost a race:
	// the task's stored status no longer matched what the caller read.
	// Callers may re-read the task and retry or abandon the transition.
	// API layer should map this to HTTP 409 Conflict.
	ErrStaleTransition = errors.New("task status changed concurrently")
)
