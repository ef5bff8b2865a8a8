// Package domain contains the core business entities, value objects, and
// domain logic of the application: tasks, their lifecycle statuses, and the
// recurrence settings that chain follow-up occurrences together. It
// represents the heart of the system, independent of any specific
// infrastructure or delivery mechanism.
package domain
