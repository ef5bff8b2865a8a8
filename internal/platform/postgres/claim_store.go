package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/platform/logger"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/store"
)

// PostgresClaimStore implements the store.ClaimStore interface
// using a PostgreSQL database as the storage backend.
//
// A claim row's primary key is the parent task ID, so the atomicity of the
// one-claim-per-parent guarantee rests entirely on the database: the first
// INSERT wins and every other one hits the conflict clause.
type PostgresClaimStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresClaimStore creates a new PostgreSQL implementation of the ClaimStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresClaimStore(db store.DBTX, logger *slog.Logger) *PostgresClaimStore {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresClaimStore{
		db:     db,
		logger: logger.With(slog.String("component", "claim_store")),
	}
}

// Ensure PostgresClaimStore implements store.ClaimStore interface
var _ store.ClaimStore = (*PostgresClaimStore)(nil)

// TryClaim implements store.ClaimStore.TryClaim
// It atomically records the claim for the given parent task and reports
// whether this caller won it. ON CONFLICT DO NOTHING makes the insert a
// no-op when the claim already exists, so exactly one caller observes true.
func (s *PostgresClaimStore) TryClaim(ctx context.Context, parentTaskID uuid.UUID) (bool, error) {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO task_claims (parent_task_id, claimed_at)
		VALUES ($1, $2)
		ON CONFLICT (parent_task_id) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query, parentTaskID, time.Now().UTC())
	if err != nil {
		// A foreign key violation means the parent task disappeared
		// between being observed as a candidate and being claimed.
		if IsForeignKeyViolation(err) {
			log.Warn("claim attempted for missing parent task",
				slog.String("error", err.Error()),
				slog.String("parent_task_id", parentTaskID.String()))
			return false, fmt.Errorf("%w: cannot claim for parent %s",
				store.ErrTaskNotFound, parentTaskID)
		}
		log.Error("failed to insert claim",
			slog.String("error", err.Error()),
			slog.String("parent_task_id", parentTaskID.String()))
		return false, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("parent_task_id", parentTaskID.String()))
		return false, err
	}

	claimed := rowsAffected == 1
	if claimed {
		log.Info("claim acquired",
			slog.String("parent_task_id", parentTaskID.String()))
	} else {
		log.Debug("claim already held",
			slog.String("parent_task_id", parentTaskID.String()))
	}
	return claimed, nil
}

// Lock implements store.ClaimStore.Lock
// It acquires a row lock on an existing claim, held until the surrounding
// transaction ends. Concurrent recoveries of the same failed generation
// serialize on this lock instead of racing each other.
// Returns store.ErrClaimNotFound if no claim exists for the parent.
func (s *PostgresClaimStore) Lock(ctx context.Context, parentTaskID uuid.UUID) error {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT parent_task_id
		FROM task_claims
		WHERE parent_task_id = $1
		FOR UPDATE
	`

	var locked uuid.UUID
	err := s.db.QueryRowContext(ctx, query, parentTaskID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no claim to lock",
				slog.String("parent_task_id", parentTaskID.String()))
			return store.ErrClaimNotFound
		}
		log.Error("failed to lock claim",
			slog.String("error", err.Error()),
			slog.String("parent_task_id", parentTaskID.String()))
		return err
	}

	log.Debug("claim locked",
		slog.String("parent_task_id", parentTaskID.String()))
	return nil
}

// WithTx implements store.ClaimStore.WithTx
// It returns a new ClaimStore instance that uses the provided transaction,
// preserving the configured logger.
func (s *PostgresClaimStore) WithTx(tx *sql.Tx) store.ClaimStore {
	return &PostgresClaimStore{
		db:     tx,
		logger: s.logger,
	}
}
