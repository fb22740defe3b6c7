package middleware

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/phrazzld/coursegen/internal/api/shared"
	"github.com/phrazzld/coursegen/internal/observability"
	"github.com/phrazzld/coursegen/internal/platform/logger"
)

// TraceMiddleware adds a trace ID, a request-scoped logger and a span to the
// request context. Apply it early so every later handler sees all three.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log)

			ctx, span := observability.StartSpan(ctx, "http "+r.Method,
				attribute.String("http.method", r.Method),
				attribute.String("http.path", r.URL.Path),
				attribute.String("trace_id", traceID))
			defer span.End()

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			w.Header().Set("X-Trace-ID", traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
