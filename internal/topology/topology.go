// Package topology derives a gossip fan-out map from cluster membership.
//
// Grounded on original_source/src/topologies.rs's Topology enum
// (StarTopology/FullMeshTopology/RingTopology over get_topology), adapted
// from an owned Rust HashMap<String, Vec<String>> into a pure Go function.
package topology

import "fmt"

// Strategy selects which fan-out shape Derive produces.
type Strategy int

const (
	// Star makes the first id the hub; every other node's sole neighbor
	// is the hub, and the hub's neighbors are everyone else.
	Star Strategy = iota
	// FullMesh connects every node to every other node.
	FullMesh
	// Ring connects each node to its successor in nodeIDs, wrapping at
	// the end.
	Ring
)

func (s Strategy) String() string {
	switch s {
	case Star:
		return "star"
	case FullMesh:
		return "full-mesh"
	case Ring:
		return "ring"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy maps a name (as might come from an operator CLI flag) to a
// Strategy. It never needs to run inside a node binary itself — topology
// strategy is a compile-time constant there — but is useful for
// cmd/maelstromctl's offline topology preview.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "star":
		return Star, nil
	case "full-mesh", "mesh", "fullmesh":
		return FullMesh, nil
	case "ring":
		return Ring, nil
	default:
		return 0, fmt.Errorf("unknown topology strategy %q", name)
	}
}

// Derive computes the neighbor map for every node in nodeIDs under the
// given strategy. The result is deterministic for a given (strategy,
// nodeIDs) pair and independent of call order or prior state.
func Derive(strategy Strategy, nodeIDs []string) map[string][]string {
	switch strategy {
	case Star:
		return deriveStar(nodeIDs)
	case FullMesh:
		return deriveFullMesh(nodeIDs)
	case Ring:
		return deriveRing(nodeIDs)
	default:
		return map[string][]string{}
	}
}

func deriveStar(nodeIDs []string) map[string][]string {
	out := make(map[string][]string, len(nodeIDs))
	if len(nodeIDs) == 0 {
		return out
	}
	hub := nodeIDs[0]
	followers := make([]string, 0, len(nodeIDs)-1)
	for _, id := range nodeIDs[1:] {
		followers = append(followers, id)
		out[id] = []string{hub}
	}
	out[hub] = followers
	return out
}

func deriveFullMesh(nodeIDs []string) map[string][]string {
	out := make(map[string][]string, len(nodeIDs))
	for _, id := range nodeIDs {
		peers := make([]string, 0, len(nodeIDs)-1)
		for _, other := range nodeIDs {
			if other != id {
				peers = append(peers, other)
			}
		}
		out[id] = peers
	}
	return out
}

func deriveRing(nodeIDs []string) map[string][]string {
	out := make(map[string][]string, len(nodeIDs))
	n := len(nodeIDs)
	for i, id := range nodeIDs {
		successor := nodeIDs[(i+1)%n]
		out[id] = []string{successor}
	}
	return out
}
