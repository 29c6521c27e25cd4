package topicreg

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// writeWait bounds how long a control-frame write may block.
const writeWait = 5 * time.Second

// SubscriberMeta is {mode, priority}, mutable under a read/write lock so
// the broker can read concurrently while the WS Listener applies updates
// (spec.md §3 SubscriberMeta, §5).
type SubscriberMeta struct {
	mu       sync.RWMutex
	mode     Mode
	priority Priority
}

// NewSubscriberMeta builds the initial metadata from already-parsed
// Mode/Priority values and stores them unchanged; defaulting (push, low)
// happens in ParseMode/ParsePriority, whose zero values are those defaults.
func NewSubscriberMeta(mode Mode, priority Priority) *SubscriberMeta {
	return &SubscriberMeta{mode: mode, priority: priority}
}

// Snapshot returns the current (mode, priority) under a shared lock.
func (m *SubscriberMeta) Snapshot() (Mode, Priority) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode, m.priority
}

// Update overwrites only the fields present in the pointers, per spec.md
// §4.4's Update control message semantics: absent fields leave prior
// values untouched.
func (m *SubscriberMeta) Update(mode *Mode, priority *Priority) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mode != nil {
		m.mode = *mode
	}
	if priority != nil {
		m.priority = *priority
	}
}

// Subscriber is a live WebSocket peer registered against one topic
// (spec.md §3). Its outbound sink is serialized by a mutex so the broker
// and the WS Listener never interleave frames on the same socket
// (invariant 2).
type Subscriber struct {
	ID   uuid.UUID
	Meta *SubscriberMeta

	sinkMu sync.Mutex
	conn   *websocket.Conn
}

// NewSubscriber creates a Subscriber with a fresh random id wrapping an
// already-upgraded WebSocket connection.
func NewSubscriber(conn *websocket.Conn, mode Mode, priority Priority) *Subscriber {
	return &Subscriber{
		ID:   uuid.New(),
		Meta: NewSubscriberMeta(mode, priority),
		conn: conn,
	}
}

// WriteText sends a single text frame, holding the outbound lock only for
// the duration of the write (spec.md §5: hold time bounded by a single
// frame write).
func (s *Subscriber) WriteText(payload string) error {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, []byte(payload))
}

// WriteControl sends a control frame (e.g. a close or ping) under the same
// outbound lock as WriteText.
func (s *Subscriber) WriteControl(messageType int, data []byte) error {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	return s.conn.WriteControl(messageType, data, time.Now().Add(writeWait))
}

// Close closes the underlying connection. Safe to call once the
// subscriber has been removed from its topic's table.
func (s *Subscriber) Close() error {
	return s.conn.Close()
}

// Conn exposes the raw connection for the WS Listener's reader goroutine,
// which is the sole task permitted to read from it (invariant 1).
func (s *Subscriber) Conn() *websocket.Conn {
	return s.conn
}
