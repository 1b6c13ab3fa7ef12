package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"badgehub/internal/contextutils"

	"go.uber.org/zap"
)

// LoggingConfig holds configuration for structured logging middleware
type LoggingConfig struct {
	SlowRequestThreshold time.Duration `json:"slow_request_threshold"`
	LogUserAgent         bool          `json:"log_user_agent"`
}

// DefaultLoggingConfig returns production-ready logging configuration
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SlowRequestThreshold: 1 * time.Second,
		LogUserAgent:         true,
	}
}

// statusWriter captures the status code and body size of a response
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// StructuredLogging logs one line per completed request
func StructuredLogging(logger *zap.Logger, config *LoggingConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultLoggingConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			writer := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(writer, r)

			duration := time.Since(start)
			fields := []zap.Field{
				zap.String("request_id", contextutils.GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", writer.status),
				zap.Int("bytes", writer.bytes),
				zap.Duration("duration", duration),
				zap.String("remote_addr", clientIP(r)),
			}
			if config.LogUserAgent {
				fields = append(fields, zap.String("user_agent", r.UserAgent()))
			}

			switch {
			case writer.status >= http.StatusInternalServerError:
				logger.Error("Request completed", fields...)
			case writer.status >= http.StatusBadRequest:
				logger.Warn("Request completed", fields...)
			default:
				logger.Info("Request completed", fields...)
			}

			if duration > config.SlowRequestThreshold {
				logger.Warn("Slow request",
					zap.String("request_id", contextutils.GetRequestID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Duration("duration", duration),
				)
			}
		})
	}
}

// clientIP resolves the originating client address behind proxies
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
