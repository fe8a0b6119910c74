package handler

import (
	"testing"

	"go.uber.org/zap"

	"github.com/mcastellin/maelstrom-nodes/internal/gcounter"
	"github.com/mcastellin/maelstrom-nodes/internal/protocol"
	"github.com/mcastellin/maelstrom-nodes/internal/topology"
)

func TestAddThenReadAccumulates(t *testing.T) {
	s := newInitializedStore(t, topology.Ring, "n1", []string{"n1"})
	h := NewGCounter(s, zap.NewNop())

	for _, delta := range []int64{3, 4} {
		raw := mustMarshal(t, protocol.AddBody{
			Header: protocol.Header{Type: protocol.TypeAdd, MsgID: 1},
			Delta:  delta,
		})
		if _, err := h.Handle("c1", raw); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	raw := mustMarshal(t, protocol.ReadBody{Header: protocol.Header{Type: protocol.TypeRead, MsgID: 2}})
	reply, err := h.Handle("c1", raw)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	body := reply.Body.(protocol.ReadOkCounterBody)
	if body.Value != 7 {
		t.Fatalf("Value = %d, want 7", body.Value)
	}
}

func TestCounterGossipRoundTripConvergesBothNodes(t *testing.T) {
	a := newInitializedStore(t, topology.Ring, "n1", []string{"n1", "n2"})
	b := newInitializedStore(t, topology.Ring, "n2", []string{"n1", "n2"})
	ha := NewGCounter(a, zap.NewNop())
	hb := NewGCounter(b, zap.NewNop())

	a.AddOwnCounter(10)
	b.AddOwnCounter(5)

	sent := CounterGossipTick(a)
	if len(sent) != 1 {
		t.Fatalf("CounterGossipTick(a) = %v, want 1 message", sent)
	}
	gossipBody := sent[0].Body.(protocol.GossipCounterBody)

	gossipRaw := mustMarshal(t, gossipBody)
	reply, err := hb.Handle("n1", gossipRaw)
	if err != nil {
		t.Fatalf("b handling gossip: %v", err)
	}
	if got := b.CounterSum(); got != 15 {
		t.Fatalf("b CounterSum() after merge = %d, want 15", got)
	}

	okBody := reply.Body.(protocol.GossipOkCounterBody)
	okRaw := mustMarshal(t, protocol.GossipOkCounterBody{
		Header:  protocol.Header{Type: protocol.TypeGossipOk, InReplyTo: gossipBody.MsgID},
		Counter: okBody.Counter,
	})
	if _, err := ha.Handle("n2", okRaw); err != nil {
		t.Fatalf("a handling gossip_ok: %v", err)
	}
	if got := a.CounterSum(); got != 15 {
		t.Fatalf("a CounterSum() after merge = %d, want 15", got)
	}
}

func TestCounterMergeNeverOverwritesOwnEntryViaGossip(t *testing.T) {
	a := newInitializedStore(t, topology.Ring, "n1", []string{"n1", "n2"})
	ha := NewGCounter(a, zap.NewNop())
	a.AddOwnCounter(8)

	// a forged remote snapshot claiming a stale view of n1's own entry
	raw := mustMarshal(t, protocol.GossipCounterBody{
		Header: protocol.Header{Type: protocol.TypeGossip, MsgID: 9},
		Counter: gcounter.Snapshot{
			"n1": {Version: 999, Value: 1},
		},
	})
	if _, err := ha.Handle("n2", raw); err != nil {
		t.Fatalf("gossip with forged own entry: %v", err)
	}
	if got := a.CounterSum(); got != 8 {
		t.Fatalf("CounterSum() = %d, want unchanged 8", got)
	}
}
