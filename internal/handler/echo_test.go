package handler

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/mcastellin/maelstrom-nodes/internal/protocol"
	"github.com/mcastellin/maelstrom-nodes/internal/topology"
)

func TestEchoReturnsPayloadVerbatim(t *testing.T) {
	s := newInitializedStore(t, topology.Star, "n1", []string{"n1"})
	h := NewEcho(s, zap.NewNop())

	raw := mustMarshal(t, protocol.EchoBody{
		Header: protocol.Header{Type: protocol.TypeEcho, MsgID: 3},
		Echo:   json.RawMessage(`"please echo 78"`),
	})

	reply, err := h.Handle("c1", raw)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	body := reply.Body.(protocol.EchoOkBody)
	if string(body.Echo) != `"please echo 78"` {
		t.Fatalf("Echo = %s, want the original payload verbatim", body.Echo)
	}
	if body.InReplyTo != 3 {
		t.Fatalf("in_reply_to = %d, want 3", body.InReplyTo)
	}
}
