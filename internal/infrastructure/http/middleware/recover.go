package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http/response"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Recover turns a handler panic into the standard JSON 500 body and marks
// the request span as failed.
func Recover(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// net/http relies on this sentinel to abort the response
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				span := trace.SpanFromContext(r.Context())
				span.RecordError(err)
				span.SetStatus(codes.Error, "panic recovered")

				logger.ErrorContext(r.Context(), "Recovered from panic",
					slog.String("stack", string(debug.Stack())),
				)
				response.InternalError(w, r, logger, err)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
