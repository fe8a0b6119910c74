// Package handler implements the per-verb state transitions of a node.
// A Handler is built once per process with the verb set of exactly one
// workload (echo, unique-id, broadcast, g-counter) and is the only place
// that mutates internal/store.Store.
//
// Grounded on original_source/broadcast/src/node.rs's Node::handle and
// original_source/g-counter/src/node.rs's equivalent: a single
// match-on-body-tag method per workload, carried into Go as a verb-name
// keyed function table rather than subclassing.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mcastellin/maelstrom-nodes/internal/protocol"
	"github.com/mcastellin/maelstrom-nodes/internal/store"
)

// ProtocolError distinguishes a fatal protocol breach from a benign,
// droppable condition. Handle itself never returns a non-fatal one: an
// unrecognized body type is logged and dropped with a nil error.
type ProtocolError struct {
	Fatal bool
	Err   error
}

func (e *ProtocolError) Error() string { return e.Err.Error() }
func (e *ProtocolError) Unwrap() error { return e.Err }

// IsFatal reports whether err (or anything it wraps) is a fatal
// ProtocolError. Any other non-nil error is treated as fatal as well.
func IsFatal(err error) bool {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Fatal
	}
	return err != nil
}

type verbFunc func(h *Handler, src string, hdr protocol.Header, raw json.RawMessage) (*protocol.Message, error)

// Handler dispatches inbound message bodies to the verb set of one
// workload, reading and writing internal/store.Store under its own lock.
type Handler struct {
	store  *store.Store
	logger *zap.Logger
	verbs  map[string]verbFunc
}

// New creates a Handler with no verbs registered; workload constructors
// (NewEcho, NewUniqueID, NewBroadcast, NewGCounter) populate it.
func New(s *store.Store, logger *zap.Logger) *Handler {
	return &Handler{
		store:  s,
		logger: logger,
		verbs:  map[string]verbFunc{},
	}
}

func (h *Handler) register(verb string, fn verbFunc) {
	h.verbs[verb] = fn
}

// Handle dispatches a single inbound body. It returns a non-nil *Message
// when a reply must be written, and a non-nil error when the body could
// not be processed — fatal errors (see IsFatal) must terminate the
// process. An unrecognized body type is logged and dropped, returning a
// nil reply and a nil error.
func (h *Handler) Handle(src string, raw json.RawMessage) (*protocol.Message, error) {
	typ, err := protocol.BodyType(raw)
	if err != nil {
		return nil, &ProtocolError{Fatal: true, Err: err}
	}

	if typ == protocol.TypeInit {
		// init is only valid as the very first message, consumed
		// directly by the bootstrap path (internal/engine) before the
		// Handler's dispatch loop ever starts. Seeing it here means the
		// harness sent a second init.
		return nil, &ProtocolError{
			Fatal: true,
			Err:   fmt.Errorf("received init after node was already initialized"),
		}
	}

	fn, ok := h.verbs[typ]
	if !ok {
		h.logger.Warn("dropping unrecognized body type",
			zap.String("type", typ), zap.String("src", src))
		return nil, nil
	}

	var hdr protocol.Header
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, &ProtocolError{Fatal: true, Err: fmt.Errorf("decode header: %w", err)}
	}

	return fn(h, src, hdr, raw)
}

func (h *Handler) reply(dest string, body any) *protocol.Message {
	return &protocol.Message{
		Src:  h.store.NodeID(),
		Dest: dest,
		Body: body,
	}
}
