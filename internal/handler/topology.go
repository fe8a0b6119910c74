package handler

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mcastellin/maelstrom-nodes/internal/protocol"
)

// RegisterTopology wires the "topology" verb, common to every workload.
// The harness-suggested map is accepted but this repository always ignores it in favor of the
// locally configured strategy;
// the handler still derives-and-stores neighbors on every call so a later
// topology message can never desynchronize neighbors from node_ids.
func RegisterTopology(h *Handler) {
	h.register(protocol.TypeTopology, handleTopology)
}

func handleTopology(h *Handler, src string, hdr protocol.Header, raw json.RawMessage) (*protocol.Message, error) {
	var body protocol.TopologyBody
	if err := protocol.Decode(raw, protocol.TypeTopology, &body); err != nil {
		return nil, &ProtocolError{Fatal: true, Err: err}
	}

	if _, err := h.store.RederiveTopology(); err != nil {
		return nil, &ProtocolError{Fatal: true, Err: err}
	}

	h.logger.Debug("topology message received, using locally derived topology",
		zap.Any("suggested", body.Topology))

	return h.reply(src, protocol.TopologyOkBody{
		Header: protocol.Header{Type: protocol.TypeTopologyOk, InReplyTo: hdr.MsgID},
	}), nil
}
