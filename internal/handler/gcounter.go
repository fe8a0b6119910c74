package handler

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mcastellin/maelstrom-nodes/internal/protocol"
	"github.com/mcastellin/maelstrom-nodes/internal/store"
)

// NewGCounter builds a Handler for the G-Counter workload: topology
// (common) plus add/read/gossip/gossip_ok. No inflight tracking is needed
// here: merge on version is idempotent, so a dropped or
// duplicated gossip simply gets corrected by the next periodic tick.
func NewGCounter(s *store.Store, logger *zap.Logger) *Handler {
	h := New(s, logger)
	RegisterTopology(h)
	h.register(protocol.TypeAdd, handleAdd)
	h.register(protocol.TypeRead, handleCounterRead)
	h.register(protocol.TypeGossip, handleCounterGossip)
	h.register(protocol.TypeGossipOk, handleCounterGossipOk)
	return h
}

func handleAdd(h *Handler, src string, hdr protocol.Header, raw json.RawMessage) (*protocol.Message, error) {
	var body protocol.AddBody
	if err := protocol.Decode(raw, protocol.TypeAdd, &body); err != nil {
		return nil, &ProtocolError{Fatal: true, Err: err}
	}

	h.store.AddOwnCounter(body.Delta)

	return h.reply(src, protocol.AddOkBody{
		Header: protocol.Header{Type: protocol.TypeAddOk, InReplyTo: hdr.MsgID},
	}), nil
}

func handleCounterRead(h *Handler, src string, hdr protocol.Header, raw json.RawMessage) (*protocol.Message, error) {
	var body protocol.ReadBody
	if err := protocol.Decode(raw, protocol.TypeRead, &body); err != nil {
		return nil, &ProtocolError{Fatal: true, Err: err}
	}

	return h.reply(src, protocol.ReadOkCounterBody{
		Header: protocol.Header{Type: protocol.TypeReadOk, InReplyTo: hdr.MsgID},
		Value:  h.store.CounterSum(),
	}), nil
}

func handleCounterGossip(h *Handler, src string, hdr protocol.Header, raw json.RawMessage) (*protocol.Message, error) {
	var body protocol.GossipCounterBody
	if err := protocol.Decode(raw, protocol.TypeGossip, &body); err != nil {
		return nil, &ProtocolError{Fatal: true, Err: err}
	}

	h.store.MergeCounter(body.Counter)

	return h.reply(src, protocol.GossipOkCounterBody{
		Header:  protocol.Header{Type: protocol.TypeGossipOk, InReplyTo: hdr.MsgID},
		Counter: h.store.CounterSnapshot(),
	}), nil
}

func handleCounterGossipOk(h *Handler, src string, hdr protocol.Header, raw json.RawMessage) (*protocol.Message, error) {
	var body protocol.GossipOkCounterBody
	if err := protocol.Decode(raw, protocol.TypeGossipOk, &body); err != nil {
		return nil, &ProtocolError{Fatal: true, Err: err}
	}

	h.store.MergeCounter(body.Counter)
	return nil, nil
}

// CounterGossipTick implements the gossip scheduler's per-tick duty for
// the G-Counter workload: snapshot the whole counter
// and push one gossip per neighbor. Nothing is cleared — unlike the
// broadcast workload's pending set, the counter has no "already sent"
// notion; merge's last-writer-wins semantics make resending the full
// state every tick harmless.
func CounterGossipTick(s *store.Store) []protocol.Message {
	neighbors := s.Neighbors()
	if len(neighbors) == 0 {
		return nil
	}

	snapshot := s.CounterSnapshot()
	nodeID := s.NodeID()
	msgs := make([]protocol.Message, 0, len(neighbors))
	for _, neighbor := range neighbors {
		msgID := s.NextMsgID()
		msgs = append(msgs, protocol.Message{
			Src:  nodeID,
			Dest: neighbor,
			Body: protocol.GossipCounterBody{
				Header:  protocol.Header{Type: protocol.TypeGossip, MsgID: msgID},
				Counter: snapshot,
			},
		})
	}
	return msgs
}
