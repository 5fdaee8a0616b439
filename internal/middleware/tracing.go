package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Context keys for tracing
type contextKey string

const (
	TraceIDKey   contextKey = "trace_id"
	StartTimeKey contextKey = "start_time"
)

// TraceHeader carries the trace id in requests and responses
const TraceHeader = "X-Request-ID"

// RequestRecorder receives the latency and outcome of every request
type RequestRecorder interface {
	RecordRequest(latencyMs uint64, isError bool)
}

// Tracing tags every request with a trace id and reports its latency to
// recorder. A valid incoming X-Request-ID is reused.
func Tracing(recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceHeader)
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.New().String()
			}
			startTime := time.Now()

			ctx := context.WithValue(r.Context(), TraceIDKey, traceID)
			ctx = context.WithValue(ctx, StartTimeKey, startTime)

			w.Header().Set(TraceHeader, traceID)
			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			duration := time.Since(startTime)
			failed := wrapped.statusCode >= http.StatusInternalServerError
			if recorder != nil {
				recorder.RecordRequest(uint64(duration.Milliseconds()), failed)
			}

			logrus.WithFields(logrus.Fields{
				"trace_id":    traceID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"duration_ms": duration.Milliseconds(),
				"status_code": wrapped.statusCode,
			}).Debug("Request completed")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Flush lets server-sent events pass through the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// GetTraceID extracts trace ID from context
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// GetStartTime extracts start time from context
func GetStartTime(ctx context.Context) time.Time {
	if startTime, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return startTime
	}
	return time.Time{}
}
