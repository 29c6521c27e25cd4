// Package mssngr wires the node's components together: the shared,
// read-mostly Node State (spec.md §2, §3 NodeConfig) that every other
// component accesses — topic registry, forwarding table, broker pool, WS
// listener, retention cleaner, and HTTP transport.
//
// Grounded on _teacher_ref/memory.go's central-struct-holding-channels-
// and-maps shape (GoCodeAlone-modular's in-memory eventbus engine), here
// generalized from one engine to the node's full component set.
package mssngr

import (
	"context"
	"fmt"

	"github.com/arghyadipchak/mssngr/internal/broker"
	"github.com/arghyadipchak/mssngr/internal/config"
	"github.com/arghyadipchak/mssngr/internal/forward"
	"github.com/arghyadipchak/mssngr/internal/httpapi"
	"github.com/arghyadipchak/mssngr/internal/metrics"
	"github.com/arghyadipchak/mssngr/internal/retention"
	"github.com/arghyadipchak/mssngr/internal/topicreg"
	"github.com/arghyadipchak/mssngr/internal/wslisten"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// registrationQueueCapacity is the WS Listener's registration channel
// size (spec.md §5: "bounded, small capacity, e.g. 100").
const registrationQueueCapacity = 100

// Node owns every long-lived component for one mssngr instance.
type Node struct {
	cfg *config.Config
	log *zap.Logger

	registry *topicreg.Registry
	forward  forward.Table
	metrics  *metrics.Metrics

	broker   *broker.Broker
	listener *wslisten.Listener
	cleaner  *retention.Cleaner
	http     *httpapi.Server

	cancel context.CancelFunc
}

// New builds every component from cfg but starts nothing.
func New(cfg *config.Config, log *zap.Logger) *Node {
	registry := topicreg.NewRegistry(cfg.Topics)
	fwdTable := forward.Build(cfg.Forward)

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	b := broker.New(registry, m, log, cfg.MaxQueue, cfg.Workers)
	l := wslisten.New(registry, m, log, registrationQueueCapacity)
	c := retention.New(registry, m, log, cfg.Persistence.Duration())
	h := httpapi.New(registry, fwdTable, b, l, m, promReg, log)

	return &Node{
		cfg:      cfg,
		log:      log,
		registry: registry,
		forward:  fwdTable,
		metrics:  m,
		broker:   b,
		listener: l,
		cleaner:  c,
		http:     h,
	}
}

// Run starts the broker pool, the WS listener, the retention cleaner, and
// the HTTP server, in that order (transport last, so nothing races to
// serve a request before its collaborators exist).
func (n *Node) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel

	n.broker.Run(ctx)
	go n.listener.Run(ctx)

	if err := n.cleaner.Start(); err != nil {
		n.listener.Stop()
		n.broker.Stop()
		cancel()
		return fmt.Errorf("mssngr: starting retention cleaner: %w", err)
	}

	if err := n.http.Start(n.cfg.Addr()); err != nil {
		n.cleaner.Stop()
		n.listener.Stop()
		n.broker.Stop()
		cancel()
		return fmt.Errorf("mssngr: starting http server: %w", err)
	}

	n.log.Info("node started",
		zap.String("id", n.cfg.ID),
		zap.String("addr", n.cfg.Addr()),
		zap.Strings("topics", n.cfg.Topics))
	return nil
}

// Shutdown stops every component in reverse start order, draining what it
// can (spec.md §5 Cancellation).
func (n *Node) Shutdown() {
	n.log.Info("node shutting down")

	if err := n.http.Stop(); err != nil {
		n.log.Warn("http server shutdown error", zap.Error(err))
	}
	n.cleaner.Stop()
	n.listener.Stop()
	n.broker.Stop()

	if n.cancel != nil {
		n.cancel()
	}
}
