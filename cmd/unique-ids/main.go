// Command unique-ids runs the unique-id workload's node process: it
// answers every generate message with a globally unique id.
package main

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/mcastellin/maelstrom-nodes/internal/engine"
	"github.com/mcastellin/maelstrom-nodes/internal/handler"
	"github.com/mcastellin/maelstrom-nodes/internal/store"
	"github.com/mcastellin/maelstrom-nodes/internal/topology"
)

func main() {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()

	s := store.New(topology.Star)
	// xid.New() mints a 12-byte, globally unique, lexically sortable id
	// from a machine/process/counter tuple plus a timestamp — the same
	// generator distributed-queue/domain.go uses to mint message ids.
	// It satisfies the only contract this workload asks for ("globally
	// unique per cluster") without any cluster-wide coordination.
	h := handler.NewUniqueID(s, logger, func() string { return xid.New().String() })
	e := engine.New(s, h, logger, os.Stdin, os.Stdout, engine.Options{})

	if err := e.Run(); err != nil {
		logger.Error("node terminated with an error", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
