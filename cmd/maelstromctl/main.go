// Command maelstromctl is a developer aid around the node binaries in
// cmd/echo, cmd/unique-ids, cmd/broadcast and cmd/g-counter. It is not
// part of the wire protocol and never runs under the Maelstrom harness —
// it exists purely to preview a derived topology or replay a captured
// transcript offline, without bringing up the full harness.
//
// Grounded on remote-procedure-call/main.go / cmd/root.go's cobra
// root-command-plus-subcommands shape.
package main

import (
	"github.com/mcastellin/maelstrom-nodes/cmd/maelstromctl/cmd"
)

func main() {
	cmd.Execute()
}
