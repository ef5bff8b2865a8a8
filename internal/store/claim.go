package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// ClaimStore defines the interface for successor-generation claims.
//
// A claim is an exclusive, one-time authorization to create the successor
// of a specific parent task. It is what keeps generation idempotent when
// the same trigger arrives more than once or when concurrent scheduler
// instances observe the same candidate.
type ClaimStore interface {
	// TryClaim atomically records the claim for the given parent task.
	// It returns true exactly once per parent across all concurrent and
	// repeated callers; false means the claim is already held and the
	// caller must not generate a successor.
	//
	// IMPORTANT: claiming and persisting the successor MUST happen in the
	// same transaction, so that a failed insert releases the claim on
	// rollback instead of stalling the chain. Use WithTx inside
	// store.RunInTransaction.
	TryClaim(ctx context.Context, parentTaskID uuid.UUID) (bool, error)

	// Lock acquires a row lock on an existing claim, held until the
	// surrounding transaction ends. It serializes recovery of a claim whose
	// successor insert previously failed against concurrent retries of the
	// same recovery. Returns ErrClaimNotFound if no claim exists for the
	// parent.
	Lock(ctx context.Context, parentTaskID uuid.UUID) error

	// WithTx returns a new ClaimStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ClaimStore
}
