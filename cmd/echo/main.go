// Command echo runs the echo workload's node process: it answers every
// echo message with echo_ok carrying the same payload.
package main

import (
	"fmt"
	"os"

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
	h := handler.NewEcho(s, logger)
	e := engine.New(s, h, logger, os.Stdin, os.Stdout, engine.Options{})

	if err := e.Run(); err != nil {
		logger.Error("node terminated with an error", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
