// Package logger provides structured logging functionality for the application.
//
// It uses Go's standard library log/slog package to produce structured JSON
// logs with configurable levels, and carries request-scoped loggers through
// context so per-request attributes (such as trace IDs) follow the call chain.
package logger
