// Package logger provides structured logging functionality for the application.
//
// It builds JSON log/slog loggers with a configurable level and carries
// request-scoped loggers through context.Context so handlers, the scheduler
// and the stores all log with the same correlation attributes.
package logger
