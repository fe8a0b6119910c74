package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const usage = `maelstromctl is a development aid for the maelstrom-nodes workloads.

It never speaks the wire protocol to a harness; it exists to preview a
derived gossip topology, or replay a captured line-delimited transcript
through an in-process node for local debugging.

EXAMPLES:
  Preview the star topology for a 4-node cluster:
    maelstromctl topology star n1 n2 n3 n4

  Replay a captured session through the broadcast workload:
    maelstromctl replay broadcast session.jsonl`

var rootCmd = &cobra.Command{
	Use:   "maelstromctl",
	Short: "development aid for the maelstrom-nodes workloads",
	Long:  usage,
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
