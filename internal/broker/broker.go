// Package broker implements the Broker Pool (spec.md §4.2) and the
// publish-side of Publish Ingress (spec.md §4.1): a fixed set of workers
// competitively dequeueing from a single bounded channel, each inserting
// the event into its topic's retention store before fanning it out to
// subscribers by mode and priority filter.
//
// Grounded on original_source/src/worker.rs::broker and
// GoCodeAlone-modular's modules/eventbus/memory.go worker-pool shape.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/arghyadipchak/mssngr/internal/metrics"
	"github.com/arghyadipchak/mssngr/internal/topicreg"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrStopped is returned by Publish when the broker pool has already
// terminated (spec.md §4.1: "on enqueue failure ... return 500").
var ErrStopped = errors.New("broker: pool stopped")

// Broker owns the bounded publish channel and the fixed worker pool that
// drains it.
type Broker struct {
	registry *topicreg.Registry
	metrics  *metrics.Metrics
	log      *zap.Logger

	queue   chan topicreg.MsgEvent
	workers int

	stopped chan struct{}
	stopOne sync.Once
	wg      sync.WaitGroup
}

// New creates a Broker. queueCapacity and workers come directly from
// NodeConfig's max_queue and workers fields (spec.md §3).
func New(registry *topicreg.Registry, m *metrics.Metrics, log *zap.Logger, queueCapacity, workers int) *Broker {
	return &Broker{
		registry: registry,
		metrics:  m,
		log:      log,
		queue:    make(chan topicreg.MsgEvent, queueCapacity),
		workers:  workers,
		stopped:  make(chan struct{}),
	}
}

// Run starts the worker pool. It returns immediately; workers run until
// ctx is cancelled or Stop is called.
func (b *Broker) Run(ctx context.Context) {
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.worker(ctx, i)
	}
}

// Stop signals all workers to stop accepting new publishes and blocks
// until the pool has drained whatever was already queued. The queue
// channel itself is never closed: a publisher that is mid-select on
// b.queue when Stop runs must observe b.stopped rather than a panic from
// sending on a closed channel (spec.md §9 open question on shutdown
// discipline — this node drains in place rather than closing the sender).
func (b *Broker) Stop() {
	b.stopOne.Do(func() { close(b.stopped) })
	b.wg.Wait()
}

// Publish constructs a MsgEvent and enqueues it, blocking up to the
// channel's capacity (spec.md §4.1, §5). It returns the event's id iff the
// event was accepted onto the broker channel (invariant 5). No retention
// write happens here; that is the worker's responsibility.
func (b *Broker) Publish(ctx context.Context, topic, content string, priority topicreg.Priority) (uuid.UUID, error) {
	event := topicreg.NewMsgEvent(topic, content, priority)

	select {
	case <-b.stopped:
		return uuid.Nil, ErrStopped
	default:
	}

	select {
	case b.queue <- event:
		if b.metrics != nil {
			b.metrics.Published(topic)
		}
		return event.ID, nil
	case <-b.stopped:
		return uuid.Nil, ErrStopped
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	}
}

func (b *Broker) worker(ctx context.Context, id int) {
	defer b.wg.Done()
	b.log.Info("broker worker started", zap.Int("worker", id))
	defer b.log.Info("broker worker stopped", zap.Int("worker", id))

	for {
		select {
		case event, ok := <-b.queue:
			if !ok {
				return
			}
			b.deliver(event)
		case <-b.stopped:
			b.drain()
			return
		case <-ctx.Done():
			b.drain()
			return
		}
	}
}

// drain processes whatever is already buffered in the queue without
// blocking, so Stop's wg.Wait doesn't leave accepted-but-undelivered
// events stranded.
func (b *Broker) drain() {
	for {
		select {
		case event, ok := <-b.queue:
			if !ok {
				return
			}
			b.deliver(event)
		default:
			return
		}
	}
}

func (b *Broker) deliver(event topicreg.MsgEvent) {
	topic, ok := b.registry.Topic(event.Topic)
	if !ok {
		// Race with shutdown/reconfiguration: topic no longer resolvable.
		b.log.Warn("broker: dropping event for unknown topic", zap.String("topic", event.Topic))
		return
	}

	// Insert before any send so a concurrent Fetch/Pull can observe the
	// event (spec.md §3 invariant 3, §4.2 step 2).
	topic.InsertEvent(event)

	pushPayload, pushOK := marshalOrEmpty(event)
	pullPayload, pullOK := marshalOrEmpty(topicreg.PullNotice{ID: event.ID, Timestamp: event.Timestamp})

	for _, sub := range topic.SubscriberSnapshot() {
		mode, priority := sub.Meta.Snapshot()
		if event.Priority < priority {
			b.log.Debug("broker: subscriber skipped by priority filter",
				zap.String("topic", event.Topic), zap.String("sub", sub.ID.String()), zap.String("msg", event.ID.String()))
			continue
		}

		payload, payloadOK := pushPayload, pushOK
		if mode == topicreg.ModePull {
			payload, payloadOK = pullPayload, pullOK
		}

		if !payloadOK {
			// Serialization failed; spec.md §4.2 step 3 allows either the
			// empty string or skipping delivery — this node skips, since
			// sending an empty frame serves no subscriber.
			if b.metrics != nil {
				b.metrics.Dropped(event.Topic)
			}
			continue
		}

		if err := sub.WriteText(payload); err != nil {
			b.log.Error("broker: subscriber notify failed",
				zap.String("topic", event.Topic), zap.String("sub", sub.ID.String()), zap.Error(err))
			if b.metrics != nil {
				b.metrics.Dropped(event.Topic)
			}
			// Removal is the WS Listener's exclusive responsibility
			// (spec.md §4.2, §7) — this worker leaves the subscriber in
			// place.
			continue
		}

		if b.metrics != nil {
			b.metrics.Delivered(event.Topic, mode)
		}
	}
}

func marshalOrEmpty(v interface{}) (string, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(data), true
}
