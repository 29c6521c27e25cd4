// Package wslisten implements the WS Listener (spec.md §4.4): a single
// long-lived task multiplexing all subscribers' inbound streams, applying
// control frames to subscriber metadata or issuing one-shot Fetch
// replies, and reaping closed connections.
//
// Go has no FuturesUnordered equivalent, so this implements the
// alternative spec.md §9 explicitly names: "a select over channels fed by
// per-subscriber reader tasks." Each registered subscriber gets exactly
// one dedicated reader goroutine (invariant 1: exactly one task consumes
// each subscriber's inbound stream); the single Listener goroutine only
// ever selects on the registration channel and one shared inbound-frame
// channel, so subscriber metadata mutation and replay always happen on
// one task.
//
// Grounded on original_source/src/worker.rs::ws_listener/handle_listen.
package wslisten

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/arghyadipchak/mssngr/internal/metrics"
	"github.com/arghyadipchak/mssngr/internal/topicreg"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrStopped is returned by Register once the Listener has shut down.
var ErrStopped = errors.New("wslisten: listener stopped")

// ListenEvent crosses the registration channel from Subscribe Ingress to
// the Listener (spec.md §3). It exists only for the duration of that
// handoff.
type ListenEvent struct {
	Conn  *websocket.Conn
	Topic string
	SubID uuid.UUID
}

type frameKind int

const (
	frameText frameKind = iota
	frameClosed
)

type frame struct {
	kind  frameKind
	topic string
	subID uuid.UUID
	data  []byte
}

// Listener is the single task described in spec.md §4.4.
type Listener struct {
	registry *topicreg.Registry
	metrics  *metrics.Metrics
	log      *zap.Logger

	register chan ListenEvent
	frames   chan frame
	stopped  chan struct{}
	stopOnce sync.Once
}

// New creates a Listener. registrationCapacity should be small (spec.md
// §5 suggests 100); it bounds how many pending subscribe upgrades can
// wait for the Listener to catch up.
func New(registry *topicreg.Registry, m *metrics.Metrics, log *zap.Logger, registrationCapacity int) *Listener {
	return &Listener{
		registry: registry,
		metrics:  m,
		log:      log,
		register: make(chan ListenEvent, registrationCapacity),
		frames:   make(chan frame, 256),
		stopped:  make(chan struct{}),
	}
}

// Register enqueues a newly-upgraded subscriber's read half for the
// Listener to start polling. It suspends until capacity is available,
// the Listener has stopped, or ctx is cancelled (spec.md §4.3, §5).
func (l *Listener) Register(ctx context.Context, ev ListenEvent) error {
	select {
	case l.register <- ev:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop signals the Listener's Run loop to exit. Reader goroutines for
// still-open connections exit on their own once the connection is closed
// elsewhere (e.g. during server shutdown).
func (l *Listener) Stop() {
	l.stopOnce.Do(func() { close(l.stopped) })
}

// Run is the single long-lived Listener task. It blocks on the
// registration channel until the first subscriber arrives, then
// continues selecting between new registrations and ready frames from any
// registered subscriber's reader goroutine (spec.md §4.4).
func (l *Listener) Run(ctx context.Context) {
	l.log.Info("ws listener started")
	defer l.log.Info("ws listener stopped")

	for {
		select {
		case ev := <-l.register:
			l.log.Info("subscriber registered", zap.String("topic", ev.Topic), zap.String("sub", ev.SubID.String()))
			go l.readLoop(ev)
		case fr := <-l.frames:
			l.handleFrame(fr)
		case <-l.stopped:
			return
		case <-ctx.Done():
			return
		}
	}
}

// readLoop is the sole reader of one subscriber's inbound stream
// (invariant 1). It forwards text frames and terminal conditions onto the
// shared frames channel and exits without re-polling once the stream ends
// (spec.md §4.4: "do not re-add the future").
func (l *Listener) readLoop(ev ListenEvent) {
	for {
		messageType, data, err := ev.Conn.ReadMessage()
		if err != nil {
			l.frames <- frame{kind: frameClosed, topic: ev.Topic, subID: ev.SubID}
			return
		}

		switch messageType {
		case websocket.CloseMessage:
			l.frames <- frame{kind: frameClosed, topic: ev.Topic, subID: ev.SubID}
			return
		case websocket.TextMessage:
			l.frames <- frame{kind: frameText, topic: ev.Topic, subID: ev.SubID, data: data}
		default:
			// Binary/ping/pong: ignore (spec.md §4.4).
		}
	}
}

func (l *Listener) handleFrame(fr frame) {
	topic, ok := l.registry.Topic(fr.topic)
	if !ok {
		return
	}

	switch fr.kind {
	case frameClosed:
		sub, ok := topic.Subscriber(fr.subID)
		topic.RemoveSubscriber(fr.subID)
		if ok {
			if err := sub.Close(); err != nil {
				l.log.Debug("subscriber close error", zap.String("sub", fr.subID.String()), zap.Error(err))
			}
		}
		if l.metrics != nil {
			l.metrics.SetActiveSubscribers(fr.topic, topic.SubscriberCount())
		}
		l.log.Info("subscriber removed", zap.String("topic", fr.topic), zap.String("sub", fr.subID.String()))
	case frameText:
		l.handleControl(topic, fr)
	}
}

func (l *Listener) handleControl(topic *topicreg.Topic, fr frame) {
	var msg controlMessage
	if err := json.Unmarshal(fr.data, &msg); err != nil {
		l.log.Debug("malformed control frame", zap.String("sub", fr.subID.String()), zap.Error(err))
		return
	}

	switch msg.Type {
	case "update":
		sub, ok := topic.Subscriber(fr.subID)
		if !ok {
			return
		}
		sub.Meta.Update(msg.Mode, msg.Priority)
		l.log.Info("subscriber meta updated", zap.String("sub", fr.subID.String()))
	case "fetch":
		if msg.ID == nil {
			l.log.Debug("fetch control frame missing id", zap.String("sub", fr.subID.String()))
			return
		}
		event, ok := topic.Event(*msg.ID)
		if !ok {
			l.log.Debug("fetch id not found", zap.String("topic", fr.topic), zap.String("id", msg.ID.String()))
			return
		}
		sub, ok := topic.Subscriber(fr.subID)
		if !ok {
			return
		}
		payload, err := json.Marshal(event)
		if err != nil {
			l.log.Error("fetch reply marshal failed", zap.Error(err))
			return
		}
		if err := sub.WriteText(string(payload)); err != nil {
			l.log.Error("fetch reply send failed", zap.String("sub", fr.subID.String()), zap.Error(err))
		}
	default:
		l.log.Debug("unrecognized control frame type", zap.String("sub", fr.subID.String()), zap.String("type", msg.Type))
	}
}
