package handler

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mcastellin/maelstrom-nodes/internal/protocol"
	"github.com/mcastellin/maelstrom-nodes/internal/store"
)

// NewEcho builds a Handler for the echo workload: topology (common) plus
// echo.
func NewEcho(s *store.Store, logger *zap.Logger) *Handler {
	h := New(s, logger)
	RegisterTopology(h)
	h.register(protocol.TypeEcho, handleEcho)
	return h
}

func handleEcho(h *Handler, src string, hdr protocol.Header, raw json.RawMessage) (*protocol.Message, error) {
	var body protocol.EchoBody
	if err := protocol.Decode(raw, protocol.TypeEcho, &body); err != nil {
		return nil, &ProtocolError{Fatal: true, Err: err}
	}

	return h.reply(src, protocol.EchoOkBody{
		Header: protocol.Header{Type: protocol.TypeEchoOk, InReplyTo: hdr.MsgID},
		Echo:   body.Echo,
	}), nil
}
