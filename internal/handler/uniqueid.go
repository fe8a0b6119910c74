package handler

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mcastellin/maelstrom-nodes/internal/protocol"
	"github.com/mcastellin/maelstrom-nodes/internal/store"
)

// IDGenerator mints a value guaranteed unique across the whole cluster.
// The unique-id workload's only correctness contract is
// pairwise distinctness of every id ever returned; it deliberately does
// not mandate any structure on the string.
type IDGenerator func() string

// NewUniqueID builds a Handler for the unique-id workload: topology
// (common) plus generate.
func NewUniqueID(s *store.Store, logger *zap.Logger, gen IDGenerator) *Handler {
	h := New(s, logger)
	RegisterTopology(h)
	h.register(protocol.TypeGenerate, makeGenerateHandler(gen))
	return h
}

func makeGenerateHandler(gen IDGenerator) verbFunc {
	return func(h *Handler, src string, hdr protocol.Header, raw json.RawMessage) (*protocol.Message, error) {
		var body protocol.GenerateBody
		if err := protocol.Decode(raw, protocol.TypeGenerate, &body); err != nil {
			return nil, &ProtocolError{Fatal: true, Err: err}
		}

		return h.reply(src, protocol.GenerateOkBody{
			Header: protocol.Header{Type: protocol.TypeGenerateOk, InReplyTo: hdr.MsgID},
			ID:     gen(),
		}), nil
	}
}
