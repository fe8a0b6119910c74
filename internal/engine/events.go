package engine

import "github.com/mcastellin/maelstrom-nodes/internal/protocol"

// event is the event bus's closed tag union: an inbound
// message to hand to the handler, a pre-built outbound message to write,
// a shutdown signal, or a fatal error. Modeled as a Go interface with an
// unexported marker method rather than reaching for a generic "envelope
// with kind string" struct, since the four variants carry genuinely
// different payloads.
type event interface{ isEvent() }

// replyEvent is produced by the stdin reader for every inbound line.
type replyEvent struct {
	src string
	raw []byte
}

// pushEvent is produced by the gossip and retry schedulers: an outbound
// message to write as-is, with no further handler dispatch.
type pushEvent struct {
	msg protocol.Message
}

// shutdownEvent terminates the consumer loop cleanly, on end-of-input.
type shutdownEvent struct{}

// fatalEvent carries an unrecoverable protocol or I/O error detected by a
// producer goroutine (the reader, primarily) back to the single consumer,
// which is the only goroutine allowed to decide process-wide shutdown.
type fatalEvent struct{ err error }

func (replyEvent) isEvent()    {}
func (pushEvent) isEvent()     {}
func (shutdownEvent) isEvent() {}
func (fatalEvent) isEvent()    {}
