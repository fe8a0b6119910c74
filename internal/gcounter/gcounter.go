// Package gcounter implements a grow-only counter CRDT: one entry per
// owner node, summed on read, reconciled by last-writer-wins on a
// per-entry version number.
//
// Grounded on original_source/g-counter/src/node.rs's Counter type
// (add/merge/sum over a HashMap<String, CounterValue>), translated
// field-for-field into Go.
package gcounter

// Entry is one owner's counter value at a point in time. Version is a
// monotonic stamp the owner assigns at the time of the increment; only
// the owner ever advances its own Version via Add.
type Entry struct {
	Version uint64 `json:"version"`
	Value   int64  `json:"value"`
}

// Snapshot is a point-in-time copy of a Counter's entries, suitable for
// embedding in a gossip message. It is a plain map so it serializes as a
// JSON object keyed by node id, matching the Rust original's
// HashMap<String, CounterValue> shape.
type Snapshot map[string]Entry

// Clone returns a shallow copy safe to hand to another goroutine.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Counter is the mutable CRDT. It is not safe for concurrent use by
// itself; callers (internal/store) are expected to serialize access.
type Counter struct {
	entries Snapshot
}

// New returns an empty Counter.
func New() *Counter {
	return &Counter{entries: Snapshot{}}
}

// Add applies delta to owner's own entry, advancing its version. Only
// the owner of an entry should ever call Add for that owner; all other
// nodes learn about owner's value exclusively through Merge.
func (c *Counter) Add(owner string, version uint64, delta int64) {
	if c.entries == nil {
		c.entries = Snapshot{}
	}
	cur, ok := c.entries[owner]
	if !ok {
		c.entries[owner] = Entry{Version: version, Value: delta}
		return
	}
	cur.Value += delta
	if version > cur.Version {
		cur.Version = version
	}
	c.entries[owner] = cur
}

// Merge folds in a remote entry for owner, keeping it only if its version
// is strictly newer than what is already known. Absent entries are always
// inserted. Merge is idempotent and commutative, so replaying the same
// gossip twice or out of order never diverges the result.
func (c *Counter) Merge(owner string, incoming Entry) {
	if c.entries == nil {
		c.entries = Snapshot{}
	}
	cur, ok := c.entries[owner]
	if !ok || incoming.Version > cur.Version {
		c.entries[owner] = incoming
	}
}

// MergeSnapshot merges every entry of a remote snapshot, skipping the
// entry keyed by selfID since a node's own entry is only ever advanced via
// Add.
func (c *Counter) MergeSnapshot(selfID string, remote Snapshot) {
	for owner, entry := range remote {
		if owner == selfID {
			continue
		}
		c.Merge(owner, entry)
	}
}

// Sum returns the sum of every entry's value: the global counter reading.
func (c *Counter) Sum() int64 {
	var total int64
	for _, e := range c.entries {
		total += e.Value
	}
	return total
}

// Snapshot returns a copy of the current entries for gossiping or testing.
func (c *Counter) Snapshot() Snapshot {
	return c.entries.Clone()
}
