// Package postgres provides the PostgreSQL-backed implementations of the
// persistence interfaces defined in the internal/store package. It owns the
// SQL queries, the mapping between task rows and domain entities, and the
// translation of driver errors into store errors.
package postgres
