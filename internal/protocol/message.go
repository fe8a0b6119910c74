// Package protocol defines the wire envelope and per-verb message bodies
// exchanged between a node, the Maelstrom harness and its peers.
//
// Every message on the wire is one JSON object per line:
//
//	{"src": "...", "dest": "...", "body": {"type": "...", ...}}
//
// The body is a closed, tag-discriminated union (the "type" field) rather
// than a polymorphic class hierarchy: callers sniff Header.Type from the
// raw body and then unmarshal into the concrete struct for that verb.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/mcastellin/maelstrom-nodes/internal/gcounter"
)

// Envelope is the wire-level frame: src/dest plus an undecoded body. The
// body is kept raw so the caller can dispatch on its "type" tag before
// committing to a concrete struct.
type Envelope struct {
	Src  string          `json:"src"`
	Dest string          `json:"dest"`
	Body json.RawMessage `json:"body"`
}

// Header carries the fields common to every message body.
type Header struct {
	Type      string `json:"type"`
	MsgID     int    `json:"msg_id,omitempty"`
	InReplyTo int    `json:"in_reply_to,omitempty"`
}

// BodyType sniffs the "type" discriminator out of a raw body without
// committing to any particular verb's struct shape.
func BodyType(raw json.RawMessage) (string, error) {
	var h Header
	if err := json.Unmarshal(raw, &h); err != nil {
		return "", fmt.Errorf("decode body header: %w", err)
	}
	return h.Type, nil
}

// Message is an outbound, fully-typed message ready for serialization. Body
// is always one of the concrete *Body types declared below.
type Message struct {
	Src  string `json:"src"`
	Dest string `json:"dest"`
	Body any    `json:"body"`
}

// Verb type constants, the snake_case discriminators carried in every
// body's "type" field.
const (
	TypeInit        = "init"
	TypeInitOk      = "init_ok"
	TypeEcho        = "echo"
	TypeEchoOk      = "echo_ok"
	TypeGenerate    = "generate"
	TypeGenerateOk  = "generate_ok"
	TypeBroadcast   = "broadcast"
	TypeBroadcastOk = "broadcast_ok"
	TypeRead        = "read"
	TypeReadOk      = "read_ok"
	TypeTopology    = "topology"
	TypeTopologyOk  = "topology_ok"
	TypeGossip      = "gossip"
	TypeGossipOk    = "gossip_ok"
	TypeAdd         = "add"
	TypeAddOk       = "add_ok"
)

// InitBody is sent once by the harness to establish cluster membership.
type InitBody struct {
	Header
	NodeID  string   `json:"node_id"`
	NodeIDs []string `json:"node_ids"`
}

// InitOkBody acknowledges InitBody.
type InitOkBody struct {
	Header
}

// EchoBody carries an opaque payload that must be echoed back verbatim;
// it is kept as raw JSON since the contract never constrains its shape.
type EchoBody struct {
	Header
	Echo json.RawMessage `json:"echo"`
}

// EchoOkBody replies with the same opaque payload.
type EchoOkBody struct {
	Header
	Echo json.RawMessage `json:"echo"`
}

// GenerateBody requests a globally unique id.
type GenerateBody struct {
	Header
}

// GenerateOkBody carries the freshly minted id.
type GenerateOkBody struct {
	Header
	ID string `json:"id"`
}

// BroadcastBody asks the node to replicate a single integer.
type BroadcastBody struct {
	Header
	Message int `json:"message"`
}

// BroadcastOkBody acknowledges a BroadcastBody.
type BroadcastOkBody struct {
	Header
}

// ReadBody requests the current value of whatever this workload replicates.
type ReadBody struct {
	Header
}

// ReadOkBroadcastBody carries the full set of messages this node has observed.
type ReadOkBroadcastBody struct {
	Header
	Messages []int `json:"messages"`
}

// ReadOkCounterBody carries the summed value of the G-Counter.
type ReadOkCounterBody struct {
	Header
	Value int64 `json:"value"`
}

// TopologyBody suggests a neighbor map. Implementations are free to ignore
// it in favor of a locally derived topology.
type TopologyBody struct {
	Header
	Topology map[string][]string `json:"topology"`
}

// TopologyOkBody acknowledges a TopologyBody.
type TopologyOkBody struct {
	Header
}

// GossipBroadcastBody is the anti-entropy payload for the broadcast
// workload: under Variant A it carries the sender's pending snapshot.
type GossipBroadcastBody struct {
	Header
	Messages []int `json:"messages"`
}

// GossipOkBroadcastBody acknowledges a gossip. Under Variant A (the variant
// this repository runs in production, see DESIGN.md) it carries no
// payload — Messages is always empty and omitted on the wire. Variant B's
// reconciliation reply (full local message set) is exercised by
// internal/handler's tests via the same struct with Messages populated.
type GossipOkBroadcastBody struct {
	Header
	Messages []int `json:"messages,omitempty"`
}

// AddBody applies a non-negative delta to this node's own G-Counter entry.
type AddBody struct {
	Header
	Delta int64 `json:"delta"`
}

// AddOkBody acknowledges an AddBody.
type AddOkBody struct {
	Header
}

// GossipCounterBody carries a snapshot of the sender's G-Counter.
type GossipCounterBody struct {
	Header
	Counter gcounter.Snapshot `json:"counter"`
}

// GossipOkCounterBody carries the receiver's merged G-Counter snapshot.
type GossipOkCounterBody struct {
	Header
	Counter gcounter.Snapshot `json:"counter"`
}

// Decode unmarshals raw into dst, wrapping any error with the verb name for
// easier diagnosis when a harness sends a malformed body.
func Decode(raw json.RawMessage, verb string, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s body: %w", verb, err)
	}
	return nil
}
