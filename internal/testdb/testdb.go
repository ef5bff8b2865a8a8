// Package testdb provides helpers for tests that need a real PostgreSQL
// database. It connects using the environment, applies the goose migrations,
// and isolates individual scenarios behind rolled-back transactions.
//
// Tests calling Connect are skipped automatically when no database URL is
// configured, so the package never makes a live database a hard requirement
// for the suite.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

// connectTimeout bounds the initial ping against the test database.
const connectTimeout = 5 * time.Second

// URL returns the database URL for tests. It checks DATABASE_URL and
// CADENCE_TEST_DB_URL in that order, returning the first non-empty value.
func URL() string {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("CADENCE_TEST_DB_URL")
	}
	return dbURL
}

// Available reports whether a test database URL is configured.
func Available() bool {
	return URL() != ""
}

// Connect opens a connection to the test database, skipping the test when
// no URL is configured. The connection is closed automatically when the
// test finishes.
func Connect(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := URL()
	if dbURL == "" {
		t.Skip("DATABASE_URL or CADENCE_TEST_DB_URL not set - skipping integration test")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "Failed to open database connection")

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "Database ping failed")

	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Logf("Warning: failed to close database connection: %v", closeErr)
		}
	})

	return db
}

// MigrateUp applies all goose migrations to the test database.
func MigrateUp(t *testing.T, db *sql.DB) {
	t.Helper()

	root, err := findModuleRoot()
	require.NoError(t, err, "Failed to find module root")

	migrationsDir := filepath.Join(root, "migrations")
	require.DirExists(t, migrationsDir, "Migrations directory does not exist: %s", migrationsDir)

	goose.SetLogger(&gooseLogger{t: t})
	goose.SetTableName("schema_migrations")
	require.NoError(t, goose.SetDialect("postgres"), "Failed to set goose dialect")

	require.NoError(t, goose.Up(db, migrationsDir), "Failed to run migrations")
}

// WithRollback executes fn inside a transaction that is always rolled back,
// so scenarios never leak rows into each other or into the database.
func WithRollback(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "Failed to begin transaction")

	defer func() {
		rollbackErr := tx.Rollback()
		// sql.ErrTxDone is expected if fn committed or rolled back itself
		if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			t.Logf("Warning: failed to rollback transaction: %v", rollbackErr)
		}
	}()

	fn(t, tx)
}

// findModuleRoot walks up from the working directory until it finds go.mod.
func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	for {
		if _, statErr := os.Stat(filepath.Join(dir, "go.mod")); statErr == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find go.mod in any parent directory")
		}
		dir = parent
	}
}

// gooseLogger routes goose output through the test log.
type gooseLogger struct {
	t *testing.T
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.t.Log("Goose: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.t.Fatal("Goose fatal error: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}
