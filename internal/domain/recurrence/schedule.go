package recurrence

import (
	"time"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain"
)

// nextDueDate computes the due date for the successor of a recurring task.
//
// The schedule anchors on the parent's own due date, not on when the parent
// was actually closed: finishing a weekly task three days late keeps the
// chain on its original weekly grid. Parents without a due date anchor on
// the current day instead.
//
// Parameters:
//   - parent: The terminal occurrence whose chain is being advanced
//   - intervalDays: The recurrence interval in days, always positive
//   - now: The current time, used only when the parent has no due date
//
// Returns:
//   - The successor's due date: parent due date + interval, or today + interval
//
// Catch-up behavior: if several intervals elapsed while the chain sat
// unprocessed, the result is still a single step from the anchor and may
// itself lie in the past. Missed occurrences are never backfilled; the
// chain advances one occurrence per completion.
func nextDueDate(parent *domain.Task, intervalDays int, now time.Time) time.Time {
	var anchor time.Time
	if parent.DueDate != nil {
		anchor = *parent.DueDate
	} else {
		utc := now.UTC()
		anchor = time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	}

	return anchor.AddDate(0, 0, intervalDays)
}

// buildSuccessor constructs the next occurrence for a terminal recurring
// parent. The prospect reference, title, description, classification tags,
// and priority carry over verbatim; the successor starts pending, is marked
// automated, inherits the recurrence settings, and records the parent's ID
// so the chain can be walked back to its root.
//
// The caller is responsible for checking eligibility (recurring flag,
// triggering status, positive interval) before calling.
func buildSuccessor(parent *domain.Task, now time.Time) *domain.Task {
	interval := *parent.RecurringIntervalDays
	dueDate := nextDueDate(parent, interval, now)
	parentID := parent.ID

	return &domain.Task{
		ID:                    uuid.New(),
		ProspectID:            cloneUUID(parent.ProspectID),
		Title:                 parent.Title,
		Description:           parent.Description,
		TaskType:              parent.TaskType,
		Category:              parent.Category,
		Priority:              parent.Priority,
		Status:                domain.TaskStatusPending,
		DueDate:               &dueDate,
		IsAutomated:           true,
		IsRecurring:           true,
		RecurringIntervalDays: &interval,
		ParentTaskID:          &parentID,
		CreatedAt:             now.UTC(),
		UpdatedAt:             now.UTC(),
	}
}

// cloneUUID copies a UUID pointer so the successor never aliases the
// parent's fields.
func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}

	clone := *id
	return &clone
}
