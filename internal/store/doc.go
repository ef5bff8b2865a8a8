// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the task engine's core logic, allowing lifecycle and recurrence rules
// to remain independent of specific database technologies.
package store
