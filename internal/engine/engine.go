// Package engine wires the transport, event bus, gossip scheduler and
// retry scheduler around an internal/handler.Handler and its
// internal/store.Store.
//
// Grounded on gossip/pkg/gossiper.go's Serve/Shutdown/serveLoop/
// gossipRound/heartBeatLoop goroutine layout (one select loop per
// concern) and distributed-queue/pkg/prefetch/pbuffer.go's serveLoop
// (single consumer goroutine multiplexing several channels); the event
// taxonomy itself (Reply/Push/Shutdown) is original_source/broadcast/src/
// main.rs's Event enum, carried over verbatim in shape.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mcastellin/maelstrom-nodes/internal/handler"
	"github.com/mcastellin/maelstrom-nodes/internal/protocol"
	"github.com/mcastellin/maelstrom-nodes/internal/store"
)

const (
	// maxLineBytes bounds a single inbound JSON line. The default
	// bufio.Scanner token limit (64KiB) is too small once a gossip
	// payload carries a few thousand pending integers.
	maxLineBytes = 16 * 1024 * 1024

	busBufferSize = 256
)

// GossipFunc builds this tick's outbound gossip messages, or nil/empty if
// there's nothing to send. It is invoked by the gossip scheduler goroutine
// on a fixed cadence and takes the store lock itself, through the Store's
// own methods; the lock is not held across the whole call, so a tick that
// calls several Store methods acquires and releases it several times.
type GossipFunc func(s *store.Store) []protocol.Message

// Options configures the schedulers around a Handler/Store pair. None of
// these are read from flags or environment variables at runtime — each
// workload's cmd/ binary fixes them as compile-time constants.
type Options struct {
	// GossipTick builds this workload's periodic anti-entropy payload.
	// A nil GossipTick disables the gossip scheduler entirely, as the
	// echo and unique-ids workloads do.
	GossipTick GossipFunc
	// GossipPeriod is the anti-entropy cadence.
	GossipPeriod time.Duration
	// UseRetry enables the retry scheduler (Variant A only).
	UseRetry bool
	// RetryPeriod is the retry cadence, conventionally 2-4x GossipPeriod.
	RetryPeriod time.Duration
}

// Engine runs one node's transport, event bus, and schedulers until
// end-of-input or a fatal protocol error.
type Engine struct {
	store   *store.Store
	handler *handler.Handler
	logger  *zap.Logger

	scanner *bufio.Scanner
	writer  *bufio.Writer

	opts Options

	bus chan event
}

// New builds an Engine. in/out are conventionally os.Stdin/os.Stdout; they
// are accepted as io.Reader/io.Writer so tests can drive the engine
// in-process without touching the real process streams.
func New(s *store.Store, h *handler.Handler, logger *zap.Logger, in io.Reader, out io.Writer, opts Options) *Engine {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	return &Engine{
		store:   s,
		handler: h,
		logger:  logger,
		scanner: scanner,
		writer:  bufio.NewWriter(out),
		opts:    opts,
		bus:     make(chan event, busBufferSize),
	}
}

// Run blocks until the harness closes stdin (clean shutdown, nil error) or
// an unrecoverable protocol/I/O error occurs. The very first line must be
// an init message; Run handles it synchronously before starting any
// goroutine.
func (e *Engine) Run() error {
	if err := e.bootstrap(); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go e.readLoop()
	if e.opts.GossipTick != nil && e.opts.GossipPeriod > 0 {
		go e.gossipLoop(ctx)
	}
	if e.opts.UseRetry && e.opts.RetryPeriod > 0 {
		go e.retryLoop(ctx)
	}

	runErr := e.consumeLoop()
	return multierr.Append(runErr, e.writer.Flush())
}

// bootstrap consumes exactly the first line of input, which must be an
// init message, initializes the store, and replies init_ok — all
// synchronously, before the reader goroutine or either scheduler starts.
func (e *Engine) bootstrap() error {
	if !e.scanner.Scan() {
		if err := e.scanner.Err(); err != nil {
			return fmt.Errorf("reading init message: %w", err)
		}
		return fmt.Errorf("stream closed before an init message was received")
	}

	line := e.scanner.Bytes()
	var env protocol.Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return fmt.Errorf("decode init envelope: %w", err)
	}

	typ, err := protocol.BodyType(env.Body)
	if err != nil {
		return err
	}
	if typ != protocol.TypeInit {
		return fmt.Errorf("expected init as the first message, got %q", typ)
	}

	var body protocol.InitBody
	if err := protocol.Decode(env.Body, protocol.TypeInit, &body); err != nil {
		return err
	}
	if err := e.store.Init(body.NodeID, body.NodeIDs); err != nil {
		return err
	}

	e.logger.Info("node initialized",
		zap.String("node_id", body.NodeID), zap.Strings("node_ids", body.NodeIDs))

	return e.write(protocol.Message{
		Src:  body.NodeID,
		Dest: env.Src,
		Body: protocol.InitOkBody{
			Header: protocol.Header{Type: protocol.TypeInitOk, InReplyTo: body.MsgID},
		},
	})
}

// readLoop is the transport's reader half: it turns every
// non-empty inbound line into a replyEvent, a parse failure into a
// fatalEvent, and end-of-input into a shutdownEvent. It is the bus's only
// producer that can terminate the process.
func (e *Engine) readLoop() {
	for e.scanner.Scan() {
		line := e.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var env protocol.Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			e.bus <- fatalEvent{err: fmt.Errorf("malformed inbound message: %w", err)}
			return
		}
		e.bus <- replyEvent{src: env.Src, raw: env.Body}
	}

	if err := e.scanner.Err(); err != nil {
		e.bus <- fatalEvent{err: fmt.Errorf("stdin read error: %w", err)}
		return
	}
	e.bus <- shutdownEvent{}
}

// gossipLoop is the gossip scheduler: it ticks forever, never exiting on
// an empty neighbor set, and pushes whatever GossipTick builds.
func (e *Engine) gossipLoop(ctx context.Context) {
	ticker := time.NewTicker(e.opts.GossipPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, msg := range e.opts.GossipTick(e.store) {
				select {
				case e.bus <- pushEvent{msg: msg}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// retryLoop is the retry scheduler: it re-emits every
// still-unacknowledged gossip on a cadence longer than the gossip tick
// itself. It never evicts inflight entries; only a matching gossip_ok
// does that.
func (e *Engine) retryLoop(ctx context.Context) {
	ticker := time.NewTicker(e.opts.RetryPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, msg := range e.store.SnapshotInflight() {
				select {
				case e.bus <- pushEvent{msg: msg}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// consumeLoop is the event bus's single consumer: it drains events
// strictly in arrival order, invoking the handler for replies and
// writing any resulting reply, or writing a push event as-is.
func (e *Engine) consumeLoop() error {
	for evt := range e.bus {
		switch v := evt.(type) {
		case replyEvent:
			reply, err := e.handler.Handle(v.src, v.raw)
			if err != nil {
				if handler.IsFatal(err) {
					return err
				}
				continue
			}
			if reply != nil {
				if err := e.write(*reply); err != nil {
					return err
				}
			}
		case pushEvent:
			if err := e.write(v.msg); err != nil {
				return err
			}
		case fatalEvent:
			return v.err
		case shutdownEvent:
			return nil
		}
	}
	return nil
}

// write serializes msg as one line and flushes immediately, so partial
// writes are never observable even under process termination. Only
// bootstrap (before any goroutine starts) and consumeLoop call write, so
// no additional locking is needed beyond the single-consumer invariant of
// the bus.
func (e *Engine) write(msg protocol.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("serialize outbound message: %w", err)
	}
	if _, err := e.writer.Write(b); err != nil {
		return fmt.Errorf("write outbound message: %w", err)
	}
	if err := e.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write outbound message: %w", err)
	}
	return e.writer.Flush()
}
