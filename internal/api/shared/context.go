// Package shared holds the request context keys and response helpers used by
// the api package and its middleware.
package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// ContextKey is the type of the context keys set by the API middleware.
type ContextKey string

const (
	// SubmitterIDContextKey is the context key for the authenticated submitter id
	SubmitterIDContextKey ContextKey = "submitterID"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of random bytes in a trace ID
	TraceIDLength = 16
)

// SetTraceID adds a new trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID retrieves the trace ID from the context, or "" when none is set.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// WithSubmitterID stores the authenticated submitter id in ctx.
func WithSubmitterID(ctx context.Context, submitterID string) context.Context {
	return context.WithValue(ctx, SubmitterIDContextKey, submitterID)
}

// SubmitterID returns the submitter id set by the auth middleware.
func SubmitterID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(SubmitterIDContextKey).(string)
	return id, ok && id != ""
}

// generateTraceID returns 32 hex characters. If crypto/rand fails a random
// UUID is used instead, so the id is never static.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if _, err := rand.Read(b); err != nil {
		id := uuid.New()
		return hex.EncodeToString(id[:])
	}
	return hex.EncodeToString(b)
}
