package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/api/shared"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/service"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/service/followup"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	// Field-level validation failures are client errors regardless of what
	// they wrap.
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}

	switch {
	// Not found errors
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrProspectNotFound),
		errors.Is(err, followup.ErrParentNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors: the request was well formed but the current state of
	// the task forbids it.
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, service.ErrStaleTransition),
		errors.Is(err, store.ErrStaleState),
		errors.Is(err, service.ErrTaskHasSuccessor),
		errors.Is(err, store.ErrTaskHasSuccessor),
		errors.Is(err, followup.ErrAlreadyClaimed),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTaskStatus),
		errors.Is(err, domain.ErrTaskIDEmpty),
		errors.Is(err, domain.ErrTaskTitleEmpty),
		errors.Is(err, domain.ErrTaskPriorityOutOfRange),
		errors.Is(err, domain.ErrTaskIntervalRequired),
		errors.Is(err, domain.ErrTaskIntervalForbidden),
		errors.Is(err, followup.ErrNotEligible),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	// Handle nil error
	if err == nil {
		return "An unexpected error occurred"
	}

	// Field validation errors carry a client-safe field and message.
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		if validationErr.Field == "" {
			return validationErr.Message
		}
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
	}

	// Map specific error types to user-friendly messages
	switch {
	// Not found errors
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, followup.ErrParentNotFound):
		return "Parent task not found"

	case errors.Is(err, service.ErrProspectNotFound),
		errors.Is(err, store.ErrProspectNotFound):
		return "Prospect not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	// Conflict errors
	case errors.Is(err, domain.ErrInvalidTransition):
		return "Invalid status transition"

	case errors.Is(err, service.ErrStaleTransition),
		errors.Is(err, store.ErrStaleState):
		return "Task was modified concurrently, please retry"

	case errors.Is(err, service.ErrTaskHasSuccessor),
		errors.Is(err, store.ErrTaskHasSuccessor):
		return "Task has a successor occurrence"

	case errors.Is(err, followup.ErrAlreadyClaimed):
		return "Successor already generated"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"

	case errors.Is(err, domain.ErrInvalidTaskStatus):
		return "Invalid task status"

	case errors.Is(err, domain.ErrTaskTitleEmpty):
		return "Task title cannot be empty"

	case errors.Is(err, domain.ErrTaskPriorityOutOfRange):
		return "Task priority must be between 1 and 4"

	case errors.Is(err, domain.ErrTaskIntervalRequired):
		return "Recurring task requires a positive interval"

	case errors.Is(err, domain.ErrTaskIntervalForbidden):
		return "Non-recurring task cannot have an interval"

	case errors.Is(err, followup.ErrNotEligible):
		return "Task is not eligible for a successor"

	case errors.Is(err, domain.ErrValidation):
		return "Validation failed"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	// Default case for unknown errors
	default:
		var storeErr *store.StoreError
		if errors.As(err, &storeErr) {
			return fmt.Sprintf("Operation failed: %s", storeErr.Message)
		}

		var serviceErr *service.TaskServiceError
		if errors.As(err, &serviceErr) {
			return "Task operation failed"
		}

		var generateErr *followup.ServiceError
		if errors.As(err, &generateErr) {
			return "Follow-up generation failed"
		}

		return "An unexpected error occurred"
	}
}

// HandleAPIError writes a sanitized error response for err. The status code
// and client message come from the central mappings; defaultMsg overrides
// the message for server errors so each handler can name the operation that
// failed without exposing internals.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)

	message := GetSafeErrorMessage(err)
	if status >= http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// HandleValidationError writes a 400 response for a request validation
// failure, extracting a field-level message where one is available.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	// Domain validation errors already carry a client-safe field and message.
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		if validationErr.Field == "" {
			return validationErr.Message
		}
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
	}

	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Extract the field name and validation tag
		// Example format: "Key: 'CreateTaskRequest.Title' Error:Field validation for 'Title' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			// Further split to get just the field validation part
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				// Create a cleaner error message
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	// Fall back to a generic validation error message
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
