// Package forward builds and serves the static topic-to-peer redirection
// table used by all three HTTP endpoints. The table is built once at
// startup by flattening the configured peer list and never mutated
// afterwards, so lookups need no locking (spec.md §3 ForwardTable, §4.7).
package forward

import "github.com/arghyadipchak/mssngr/internal/config"

// Peer is the immutable, shared-by-reference federation peer descriptor
// looked up by topic name.
type Peer struct {
	ID   string
	Addr string
}

// Table maps topic name -> Peer. It is read-only after Build returns.
type Table map[string]*Peer

// Build flattens a peer list into a Table. On duplicate topic names across
// peers, the later entry in the list wins; this is treated as a
// configuration smell, not a fatal error (spec.md §3 invariant on
// ForwardTable construction).
func Build(peers []config.Peer) Table {
	t := make(Table)
	for i := range peers {
		p := &Peer{ID: peers[i].ID, Addr: peers[i].Addr}
		for _, topic := range peers[i].Topics {
			t[topic] = p
		}
	}
	return t
}

// Lookup returns the peer hosting topic, if any. Callers are responsible
// for checking local ownership first; local topics always shadow a
// forwarding entry (spec.md §4.6, §4.7, invariant 4).
func (t Table) Lookup(topic string) (*Peer, bool) {
	p, ok := t[topic]
	return p, ok
}
