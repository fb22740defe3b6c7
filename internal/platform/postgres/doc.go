// Package postgres implements the outcome journal on PostgreSQL through the
// pgx database/sql driver. The schema ships embedded in the binary and is
// applied with goose on startup.
package postgres
