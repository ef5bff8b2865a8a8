package store

import (
	"context"

	"github.com/google/uuid"
)

// ProspectStore defines the read-only view of the prospect registry that
// the task engine needs. Prospect records are owned and managed elsewhere;
// tasks carry only a weak reference and react to a prospect's absence by
// clearing it.
type ProspectStore interface {
	// Exists reports whether a prospect record with the given ID is present.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
