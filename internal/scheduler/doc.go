// Package scheduler runs the periodic background scan that keeps recurrence
// chains moving. Each pass picks up terminal recurring tasks whose successor
// was never created (a lost trigger, a crashed process) and hands them to the
// follow-up generator, then flags pending tasks that have slipped past their
// due date. The scan is stateless, so restarts never lose work and multiple
// instances can run it side by side.
package scheduler
