package topicreg

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Topic holds one locally-owned topic's subscriber table and retention
// store. Both maps are guarded by their own sync.RWMutex: spec.md §9
// explicitly permits "a global read/write lock around a plain map ... if
// broker fan-out holds only shared access during iteration," which is the
// discipline Snapshot/Insert/Remove below implement.
type Topic struct {
	Name string

	subMu sync.RWMutex
	subs  map[uuid.UUID]*Subscriber

	retMu sync.RWMutex
	ret   map[uuid.UUID]MsgEvent
}

// NewTopic creates an empty Topic.
func NewTopic(name string) *Topic {
	return &Topic{
		Name: name,
		subs: make(map[uuid.UUID]*Subscriber),
		ret:  make(map[uuid.UUID]MsgEvent),
	}
}

// AddSubscriber inserts a newly-registered subscriber.
func (t *Topic) AddSubscriber(s *Subscriber) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	t.subs[s.ID] = s
}

// RemoveSubscriber removes a subscriber by id. Removal is the WS
// Listener's exclusive responsibility, triggered by a close frame or
// end-of-stream (spec.md §4.4, §7).
func (t *Topic) RemoveSubscriber(id uuid.UUID) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	delete(t.subs, id)
}

// Subscriber looks up a single subscriber by id.
func (t *Topic) Subscriber(id uuid.UUID) (*Subscriber, bool) {
	t.subMu.RLock()
	defer t.subMu.RUnlock()
	s, ok := t.subs[id]
	return s, ok
}

// SubscriberSnapshot returns a point-in-time slice of all current
// subscribers for iteration. Newly inserted subscribers may or may not be
// seen by an in-flight broker fan-out (spec.md §5), which this
// snapshot-then-release discipline makes explicit: the lock is released
// before any subscriber is touched, so the broker never holds it across a
// WebSocket write.
func (t *Topic) SubscriberSnapshot() []*Subscriber {
	t.subMu.RLock()
	defer t.subMu.RUnlock()
	out := make([]*Subscriber, 0, len(t.subs))
	for _, s := range t.subs {
		out = append(out, s)
	}
	return out
}

// SubscriberCount reports the current table size, for metrics.
func (t *Topic) SubscriberCount() int {
	t.subMu.RLock()
	defer t.subMu.RUnlock()
	return len(t.subs)
}

// InsertEvent inserts a MsgEvent into retention, keyed by its id. The
// Broker calls this before any fan-out send so a concurrent Fetch/Pull
// request can observe the event (spec.md §3 invariant 3, §4.2 step 2).
func (t *Topic) InsertEvent(e MsgEvent) {
	t.retMu.Lock()
	defer t.retMu.Unlock()
	t.ret[e.ID] = e
}

// Event looks up a single retained event by id.
func (t *Topic) Event(id uuid.UUID) (MsgEvent, bool) {
	t.retMu.RLock()
	defer t.retMu.RUnlock()
	e, ok := t.ret[id]
	return e, ok
}

// Events resolves a list of ids against retention, silently omitting any
// id not found (spec.md §4.6).
func (t *Topic) Events(ids []uuid.UUID) []MsgEvent {
	t.retMu.RLock()
	defer t.retMu.RUnlock()
	out := make([]MsgEvent, 0, len(ids))
	for _, id := range ids {
		if e, ok := t.ret[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// EvictOlderThan removes every retained event whose age is at least
// retention, as the Retention Cleaner does on each sweep (spec.md §4.5).
// It returns the number of events evicted.
func (t *Topic) EvictOlderThan(retention time.Duration, now time.Time) int {
	t.retMu.Lock()
	defer t.retMu.Unlock()

	evicted := 0
	for id, e := range t.ret {
		if now.Sub(e.Timestamp) >= retention {
			delete(t.ret, id)
			evicted++
		}
	}
	return evicted
}

// RetentionSize reports the current retention store size, for metrics.
func (t *Topic) RetentionSize() int {
	t.retMu.RLock()
	defer t.retMu.RUnlock()
	return len(t.ret)
}
