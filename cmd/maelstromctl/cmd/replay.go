package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mcastellin/maelstrom-nodes/internal/engine"
	"github.com/mcastellin/maelstrom-nodes/internal/handler"
	"github.com/mcastellin/maelstrom-nodes/internal/store"
	"github.com/mcastellin/maelstrom-nodes/internal/topology"
)

const replayGossipPeriod = 250 * time.Millisecond

var replayCmd = &cobra.Command{
	Use:   "replay [echo|unique-ids|broadcast|g-counter] [file]",
	Short: "feed a captured line-delimited session through an in-process node",
	Long: `replay reads a file of newline-delimited JSON messages (the first must
be an init message) and drives an in-process node exactly the way the
Maelstrom harness would, printing every outbound line to stdout. It is
meant for reproducing a session offline, not for conformance testing.`,
	Args: cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("open transcript: %w", err)
		}
		defer f.Close()

		logger := zap.NewNop()

		s, h, opts, err := buildWorkload(args[0], logger)
		if err != nil {
			return err
		}

		e := engine.New(s, h, logger, f, os.Stdout, opts)
		return e.Run()
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func buildWorkload(name string, logger *zap.Logger) (*store.Store, *handler.Handler, engine.Options, error) {
	switch name {
	case "echo":
		s := store.New(topology.Star)
		return s, handler.NewEcho(s, logger), engine.Options{}, nil
	case "unique-ids":
		s := store.New(topology.Star)
		gen := func() string { return xid.New().String() }
		return s, handler.NewUniqueID(s, logger, gen), engine.Options{}, nil
	case "broadcast":
		s := store.New(topology.Star)
		opts := engine.Options{
			GossipTick:   handler.BroadcastGossipTick,
			GossipPeriod: replayGossipPeriod,
			UseRetry:     true,
			RetryPeriod:  3 * replayGossipPeriod,
		}
		return s, handler.NewBroadcast(s, logger), opts, nil
	case "g-counter":
		s := store.New(topology.Ring)
		opts := engine.Options{
			GossipTick:   handler.CounterGossipTick,
			GossipPeriod: replayGossipPeriod,
		}
		return s, handler.NewGCounter(s, logger), opts, nil
	default:
		return nil, nil, engine.Options{}, fmt.Errorf("unknown workload %q", name)
	}
}
