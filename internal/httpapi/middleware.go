package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// statusRecorder captures the status code a handler wrote so the request
// logger can report it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack makes statusRecorder satisfy http.Hijacker by delegating to the
// embedded writer, the same pattern chi's middleware.WrapResponseWriter
// uses. Without it, handleSubscribe's websocket.Upgrader.Upgrade — which
// type-asserts its ResponseWriter to http.Hijacker — fails for every
// request routed through requestLogger, since embedding an interface only
// promotes that interface's own method set.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("statusRecorder: underlying ResponseWriter does not support hijacking")
	}
	return hijacker.Hijack()
}

// requestLogger is the Go substitute for the original's
// tower_http::trace::TraceLayer (SPEC_FULL.md §6): every request gets a
// fresh id and a single structured log line with method, path, status,
// and latency once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", time.Since(start)),
		}
		switch {
		case rec.status >= 500:
			s.log.Error("request", fields...)
		case rec.status >= 400:
			s.log.Warn("request", fields...)
		default:
			s.log.Info("request", fields...)
		}
	})
}
