// Package httpapi implements Publish Ingress, Subscribe Ingress, and the
// Fetch Endpoint (spec.md §4.1, §4.3, §4.6) as chi handlers, plus the
// ambient `/` health check and `/metrics` Prometheus endpoint.
//
// Grounded on _teacher_ref/chimux_router.go's RouterService shape (routes
// registered against a chi.Router) and _teacher_ref/module.go's
// Start/Stop lifecycle for the underlying http.Server.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/arghyadipchak/mssngr/internal/broker"
	"github.com/arghyadipchak/mssngr/internal/forward"
	"github.com/arghyadipchak/mssngr/internal/metrics"
	"github.com/arghyadipchak/mssngr/internal/topicreg"
	"github.com/arghyadipchak/mssngr/internal/wslisten"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// shutdownTimeout bounds how long Stop waits for in-flight requests to
// finish (_teacher_ref/module.go's ShutdownTimeout, fixed here rather than
// configurable since spec.md names no such field).
const shutdownTimeout = 10 * time.Second

// Server owns the HTTP transport for the node: routing, WebSocket
// upgrade, and the underlying listener's lifecycle.
type Server struct {
	registry *topicreg.Registry
	forward  forward.Table
	broker   *broker.Broker
	listener *wslisten.Listener
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	log      *zap.Logger
	upgrader websocket.Upgrader

	httpServer *http.Server
}

// New wires a Server. gatherer is the same registry metrics.New registered
// against, exposed read-only at GET /metrics.
func New(registry *topicreg.Registry, fwd forward.Table, b *broker.Broker, l *wslisten.Listener, m *metrics.Metrics, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	return &Server{
		registry: registry,
		forward:  fwd,
		broker:   b,
		listener: l,
		metrics:  m,
		gatherer: gatherer,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the chi router mounting every endpoint in spec.md §6.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/", s.handleIndex)
	r.Post("/publish/{topic}", s.handlePublish)
	r.Get("/subscribe/{topic}", s.handleSubscribe)
	r.Get("/fetch/{topic}", s.handleFetch)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// Start binds addr and serves in the background. It waits up to 200ms:
// if ListenAndServe fails within that window (e.g. bind failure) the
// error is returned, otherwise Start returns nil.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server starting", zap.String("addr", addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("httpapi: listen %s: %w", addr, err)
		}
		return nil
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

// Stop gracefully drains in-flight requests (_teacher_ref/module.go's
// Stop shape, minus the TLS/event-emission machinery this node has no use
// for).
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("http server stopping")
	return s.httpServer.Shutdown(ctx)
}
