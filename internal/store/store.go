// Package store holds the single, mutex-protected piece of shared mutable
// state a node owns: cluster membership, the derived topology, the
// broadcast message set, in-flight gossip bookkeeping, and the G-Counter.
//
// Grounded on gossip/pkg/statemachine.go's StateMachine: one struct behind
// one sync.RWMutex, with narrow verb-shaped methods (Peers/Update/Taint/
// Beat there; InsertBroadcast/ApplyGossip/... here) as the only mutation
// points, so a handler's "one transition = one atomic update" contract
// holds by construction.
package store

import (
	"fmt"
	"sync"

	"github.com/mcastellin/maelstrom-nodes/internal/gcounter"
	"github.com/mcastellin/maelstrom-nodes/internal/protocol"
	"github.com/mcastellin/maelstrom-nodes/internal/topology"
)

// Store is the node's single shared resource. All access outside
// this package must go through its methods; none of its fields are
// exported.
type Store struct {
	mu sync.RWMutex

	initialized bool
	nodeID      string
	nodeIDs     []string
	strategy    topology.Strategy
	neighbors   []string

	messages map[int]struct{}
	pending  map[int]struct{}

	inflight map[int]protocol.Message

	lastMessageID int

	counter *gcounter.Counter
}

// New creates an uninitialized Store. Init must be called (in response to
// the harness's init message) before any other method is used.
func New(strategy topology.Strategy) *Store {
	return &Store{
		strategy: strategy,
		messages: map[int]struct{}{},
		pending:  map[int]struct{}{},
		inflight: map[int]protocol.Message{},
		counter:  gcounter.New(),
	}
}

// ErrAlreadyInitialized is returned by Init when called more than once:
// init may appear only as the first message; on any subsequent
// occurrence, the node fails with a protocol error.
var ErrAlreadyInitialized = fmt.Errorf("node already initialized")

// Init sets node identity and cluster membership, and derives neighbors
// from the configured topology strategy. It is the only method allowed to
// transition the store out of its zero state.
func (s *Store) Init(nodeID string, nodeIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return ErrAlreadyInitialized
	}

	found := false
	for _, id := range nodeIDs {
		if id == nodeID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("node id %q not present in node_ids %v", nodeID, nodeIDs)
	}

	s.nodeID = nodeID
	s.nodeIDs = append([]string(nil), nodeIDs...)
	s.neighbors = topology.Derive(s.strategy, s.nodeIDs)[nodeID]
	s.initialized = true
	return nil
}

// Initialized reports whether Init has already succeeded.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// NodeID returns this node's identifier.
func (s *Store) NodeID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodeID
}

// RederiveTopology recomputes neighbors from the current membership and
// configured strategy. Called from the topology handler so a later
// topology message can never desynchronize neighbors from node_ids.
func (s *Store) RederiveTopology() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	neighbors, ok := topology.Derive(s.strategy, s.nodeIDs)[s.nodeID]
	if !ok {
		return nil, fmt.Errorf("node id %q missing from derived topology", s.nodeID)
	}
	s.neighbors = neighbors
	return append([]string(nil), neighbors...), nil
}

// Neighbors returns the current gossip fan-out set.
func (s *Store) Neighbors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.neighbors...)
}

// NextMsgID stamps and returns the next outbound msg_id: this counter
// never decreases and every value it returns within a process lifetime
// is unique.
func (s *Store) NextMsgID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMessageID++
	return s.lastMessageID
}

// InsertBroadcast records a client-delivered value: it becomes visible in
// Messages and is queued in Pending for the next gossip tick. Insertion is
// idempotent — broadcasting the same value twice leaves the same state as
// broadcasting it once.
func (s *Store) InsertBroadcast(value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(value)
}

func (s *Store) insertLocked(value int) {
	if _, known := s.messages[value]; known {
		return
	}
	s.messages[value] = struct{}{}
	s.pending[value] = struct{}{}
}

// Messages returns every value this node has observed.
func (s *Store) Messages() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.messages))
	for v := range s.messages {
		out = append(out, v)
	}
	return out
}

// SnapshotPendingAndClear returns the current pending set and empties it.
// Used by the gossip scheduler once per tick.
func (s *Store) SnapshotPendingAndClear() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.pending))
	for v := range s.pending {
		out = append(out, v)
	}
	s.pending = map[int]struct{}{}
	return out
}

// RecordInflight stores a sent-but-unacknowledged gossip message under its
// msg_id, for the retry scheduler to re-emit later.
func (s *Store) RecordInflight(msgID int, msg protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[msgID] = msg
}

// AckInflight removes the inflight entry matching msgID, if any.
func (s *Store) AckInflight(msgID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, msgID)
}

// SnapshotInflight returns every currently unacknowledged gossip message,
// for the retry scheduler to re-emit. The retry scheduler never evicts
// entries itself; only AckInflight does.
func (s *Store) SnapshotInflight() []protocol.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]protocol.Message, 0, len(s.inflight))
	for _, m := range s.inflight {
		out = append(out, m)
	}
	return out
}

// ApplyGossip unions an incoming set of values into Messages, queuing any
// newly learned value into Pending so it propagates onward next tick, and
// returns exactly the values that were new.
func (s *Store) ApplyGossip(values []int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	newly := make([]int, 0, len(values))
	for _, v := range values {
		if _, known := s.messages[v]; !known {
			newly = append(newly, v)
		}
		s.insertLocked(v)
	}
	return newly
}

// ReconcileFromGossipOk implements Variant B's bidirectional anti-entropy:
// given the sender's full local set from a gossip_ok reply, queue every
// value this node has that the sender does not, and learn every value the
// sender has that this node doesn't. Values learned this way are added to
// Messages only; they are not queued into Pending.
func (s *Store) ReconcileFromGossipOk(remote []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remoteSet := make(map[int]struct{}, len(remote))
	for _, v := range remote {
		remoteSet[v] = struct{}{}
	}
	for v := range s.messages {
		if _, present := remoteSet[v]; !present {
			s.pending[v] = struct{}{}
		}
	}
	for _, v := range remote {
		s.messages[v] = struct{}{}
	}
}

// AddOwnCounter applies a local add: the caller's own G-Counter entry is
// advanced using a freshly stamped msg_id as its version.
func (s *Store) AddOwnCounter(delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMessageID++
	s.counter.Add(s.nodeID, uint64(s.lastMessageID), delta)
}

// CounterSum returns the current summed G-Counter value.
func (s *Store) CounterSum() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counter.Sum()
}

// CounterSnapshot returns a copy of the G-Counter's entries for gossiping.
func (s *Store) CounterSnapshot() gcounter.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counter.Snapshot()
}

// MergeCounter folds a remote G-Counter snapshot into the local one,
// skipping this node's own entry.
func (s *Store) MergeCounter(remote gcounter.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter.MergeSnapshot(s.nodeID, remote)
}
