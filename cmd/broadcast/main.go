// Command broadcast runs the broadcast workload's node process: clients
// insert integers, the node replicates them to every other node via
// periodic anti-entropy gossip (Variant A).
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

const (
	// gossipPeriod is the anti-entropy cadence for the broadcast
	// workload.
	gossipPeriod = 250 * time.Millisecond
	// retryPeriod is 3x the gossip period, giving each peer a few ticks
	// to ack before a gossip is re-sent.
	retryPeriod = 3 * gossipPeriod
)

func main() {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()

	s := store.New(topology.Star)
	h := handler.NewBroadcast(s, logger)
	e := engine.New(s, h, logger, os.Stdin, os.Stdout, engine.Options{
		GossipTick:   handler.BroadcastGossipTick,
		GossipPeriod: gossipPeriod,
		UseRetry:     true,
		RetryPeriod:  retryPeriod,
	})

	if err := e.Run(); err != nil {
		logger.Error("node terminated with an error", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
