package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/platform/logger"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/store"
)

// PostgresProspectStore implements the store.ProspectStore interface
// using a PostgreSQL database as the storage backend. It only reads: the
// task engine observes prospects, it never manages them.
type PostgresProspectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProspectStore creates a new PostgreSQL implementation of the ProspectStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresProspectStore(db store.DBTX, logger *slog.Logger) *PostgresProspectStore {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProspectStore{
		db:     db,
		logger: logger.With(slog.String("component", "prospect_store")),
	}
}

// Ensure PostgresProspectStore implements store.ProspectStore interface
var _ store.ProspectStore = (*PostgresProspectStore)(nil)

// Exists implements store.ProspectStore.Exists
// It reports whether a prospect record with the given ID is present.
func (s *PostgresProspectStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT EXISTS (SELECT 1 FROM prospects WHERE id = $1)
	`

	var exists bool
	err := s.db.QueryRowContext(ctx, query, id).Scan(&exists)
	if err != nil {
		log.Error("failed to check prospect existence",
			slog.String("error", err.Error()),
			slog.String("prospect_id", id.String()))
		return false, err
	}

	log.Debug("prospect existence checked",
		slog.String("prospect_id", id.String()),
		slog.Bool("exists", exists))
	return exists, nil
}
