// Command g-counter runs the grow-only counter workload's node process:
// clients apply non-negative deltas locally, nodes converge to the same
// sum via periodic G-Counter gossip over a ring topology.
package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mcastellin/maelstrom-nodes/internal/engine"
	"github.com/mcastellin/maelstrom-nodes/internal/handler"
	"github.com/mcastellin/maelstrom-nodes/internal/store"
	"github.com/mcastellin/maelstrom-nodes/internal/topology"
)

// gossipPeriod is the anti-entropy cadence for the G-Counter.
const gossipPeriod = 250 * time.Millisecond

func main() {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()

	s := store.New(topology.Ring)
	h := handler.NewGCounter(s, logger)
	e := engine.New(s, h, logger, os.Stdin, os.Stdout, engine.Options{
		GossipTick:   handler.CounterGossipTick,
		GossipPeriod: gossipPeriod,
		// No retry scheduler: last-writer-wins merge on version is
		// idempotent, so a dropped gossip self-heals on the next tick
		// rather than needing inflight tracking.
		UseRetry: false,
	})

	if err := e.Run(); err != nil {
		logger.Error("node terminated with an error", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
