// Package pg bootstraps the PostgreSQL layer for the membership store: a
// pgx connection pool with retry on startup, goose schema migrations and a
// health check. The SQL itself lives with the store adapter; this package
// only owns connectivity.
package pg
