package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mcastellin/maelstrom-nodes/internal/topology"
)

var topologyCmd = &cobra.Command{
	Use:   "topology [star|full-mesh|ring] [node-id...]",
	Short: "print the neighbor map a strategy derives for a membership list",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		strategy, err := topology.ParseStrategy(args[0])
		if err != nil {
			return err
		}

		nodeIDs := args[1:]
		neighbors := topology.Derive(strategy, nodeIDs)

		sorted := append([]string(nil), nodeIDs...)
		sort.Strings(sorted)

		for _, id := range sorted {
			fmt.Printf("%s -> %v\n", id, neighbors[id])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(topologyCmd)
}
