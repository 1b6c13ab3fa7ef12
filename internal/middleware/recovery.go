package middleware

import (
	"net/http"
	"runtime"

	"badgehub/internal/contextutils"
	"badgehub/internal/response"
	"badgehub/internal/services"

	"go.uber.org/zap"
)

// Recovery converts handler panics into 500 responses. The stack trace is
// logged but never exposed to the client.
func Recovery(logger *zap.Logger, builder *response.Builder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := make([]byte, 8192)
					stack = stack[:runtime.Stack(stack, false)]

					logger.Error("Panic recovered in handler",
						zap.Any("panic", rec),
						zap.String("request_id", contextutils.GetRequestID(r.Context())),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", stack),
					)

					builder.WriteError(w, r, services.NewInternalError("request handling failed"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
