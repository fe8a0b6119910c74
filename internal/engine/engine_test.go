package engine

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mcastellin/maelstrom-nodes/internal/handler"
	"github.com/mcastellin/maelstrom-nodes/internal/protocol"
	"github.com/mcastellin/maelstrom-nodes/internal/store"
	"github.com/mcastellin/maelstrom-nodes/internal/topology"
)

func decodeLines(t *testing.T, out *bytes.Buffer) []protocol.Envelope {
	t.Helper()
	var envs []protocol.Envelope
	for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		if line == "" {
			continue
		}
		var env protocol.Envelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			t.Fatalf("decode output line %q: %v", line, err)
		}
		envs = append(envs, env)
	}
	return envs
}

// pumpLines scans complete lines off r onto a channel, for tests that need
// to observe Engine output as it is produced rather than after Run returns.
func pumpLines(r io.Reader) <-chan string {
	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()
	return lines
}

func awaitLineOfType(t *testing.T, lines <-chan string, want string, within time.Duration) {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("output closed before a %q message arrived", want)
			}
			var env protocol.Envelope
			if err := json.Unmarshal([]byte(line), &env); err != nil {
				t.Fatalf("decode output line %q: %v", line, err)
			}
			typ, err := protocol.BodyType(env.Body)
			if err != nil {
				t.Fatalf("sniff body type of %q: %v", line, err)
			}
			if typ == want {
				return
			}
		case <-deadline:
			t.Fatalf("no %q message arrived within %s", want, within)
		}
	}
}

func TestGossipSchedulerPushesWithinGossipPeriod(t *testing.T) {
	s1 := store.New(topology.FullMesh)
	h1 := handler.NewBroadcast(s1, zap.NewNop())

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	e := New(s1, h1, zap.NewNop(), inR, outW, Options{
		GossipTick:   handler.BroadcastGossipTick,
		GossipPeriod: 20 * time.Millisecond,
	})

	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	lines := pumpLines(outR)

	if _, err := io.WriteString(inW, `{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1","n2"]}}`+"\n"); err != nil {
		t.Fatalf("write init: %v", err)
	}
	awaitLineOfType(t, lines, protocol.TypeInitOk, time.Second)

	if _, err := io.WriteString(inW, `{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":2,"message":42}}`+"\n"); err != nil {
		t.Fatalf("write broadcast: %v", err)
	}
	awaitLineOfType(t, lines, protocol.TypeBroadcastOk, time.Second)

	// the gossip scheduler ticks every 20ms; a gossip push for neighbor n2
	// must show up well within a one-second bound.
	awaitLineOfType(t, lines, protocol.TypeGossip, time.Second)

	inW.Close()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	outW.Close()
}

func TestRetrySchedulerReemitsUnackedInflightMessage(t *testing.T) {
	s1 := store.New(topology.FullMesh)
	h1 := handler.NewBroadcast(s1, zap.NewNop())

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	e := New(s1, h1, zap.NewNop(), inR, outW, Options{
		UseRetry:    true,
		RetryPeriod: 20 * time.Millisecond,
	})

	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	lines := pumpLines(outR)

	if _, err := io.WriteString(inW, `{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1","n2"]}}`+"\n"); err != nil {
		t.Fatalf("write init: %v", err)
	}
	awaitLineOfType(t, lines, protocol.TypeInitOk, time.Second)

	// simulate what BroadcastGossipTick would have recorded on its first
	// tick: a gossip sent to n2 with no matching gossip_ok ever arriving.
	msgID := s1.NextMsgID()
	s1.RecordInflight(msgID, protocol.Message{
		Src:  "n1",
		Dest: "n2",
		Body: protocol.GossipBroadcastBody{
			Header:   protocol.Header{Type: protocol.TypeGossip, MsgID: msgID},
			Messages: []int{7},
		},
	})

	// the retry scheduler ticks every 20ms and must re-emit the still
	// unacknowledged gossip without being told to.
	awaitLineOfType(t, lines, protocol.TypeGossip, time.Second)

	inW.Close()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	outW.Close()
}

func TestRunHandlesInitHandshakeThenEcho(t *testing.T) {
	s := store.New(topology.Star)
	h := handler.NewEcho(s, zap.NewNop())

	input := strings.Join([]string{
		`{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1"]}}`,
		`{"src":"c1","dest":"n1","body":{"type":"echo","msg_id":2,"echo":"hello"}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	e := New(s, h, zap.NewNop(), strings.NewReader(input), &out, Options{})

	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	envs := decodeLines(t, &out)
	if len(envs) != 2 {
		t.Fatalf("got %d output lines, want 2: %+v", len(envs), envs)
	}

	typ, err := protocol.BodyType(envs[0].Body)
	if err != nil || typ != protocol.TypeInitOk {
		t.Fatalf("first reply type = %q, err %v, want init_ok", typ, err)
	}
	typ, err = protocol.BodyType(envs[1].Body)
	if err != nil || typ != protocol.TypeEchoOk {
		t.Fatalf("second reply type = %q, err %v, want echo_ok", typ, err)
	}

	var echoOk protocol.EchoOkBody
	if err := protocol.Decode(envs[1].Body, protocol.TypeEchoOk, &echoOk); err != nil {
		t.Fatalf("decode echo_ok: %v", err)
	}
	if string(echoOk.Echo) != `"hello"` {
		t.Fatalf("Echo = %s, want \"hello\"", echoOk.Echo)
	}
}

func TestRunTerminatesCleanlyOnEOF(t *testing.T) {
	s := store.New(topology.Star)
	h := handler.NewEcho(s, zap.NewNop())

	input := `{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1"]}}` + "\n"

	var out bytes.Buffer
	e := New(s, h, zap.NewNop(), strings.NewReader(input), &out, Options{})

	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunReportsFatalErrorOnMalformedLine(t *testing.T) {
	s := store.New(topology.Star)
	h := handler.NewEcho(s, zap.NewNop())

	input := strings.Join([]string{
		`{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1"]}}`,
		`not json at all`,
	}, "\n") + "\n"

	var out bytes.Buffer
	e := New(s, h, zap.NewNop(), strings.NewReader(input), &out, Options{})

	if err := e.Run(); err == nil {
		t.Fatal("expected Run to return an error for a malformed inbound line")
	}
}

func TestRunBroadcastWorkloadAcceptsAndStoresMessage(t *testing.T) {
	s1 := store.New(topology.FullMesh)
	h1 := handler.NewBroadcast(s1, zap.NewNop())

	input := strings.Join([]string{
		`{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1","n2"]}}`,
		`{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":2,"message":42}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	e := New(s1, h1, zap.NewNop(), strings.NewReader(input), &out, Options{
		GossipTick:   handler.BroadcastGossipTick,
		GossipPeriod: 0,
	})

	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	envs := decodeLines(t, &out)
	if len(envs) != 2 {
		t.Fatalf("got %d output lines, want 2 (init_ok, broadcast_ok)", len(envs))
	}
	if got := s1.Messages(); len(got) != 1 || got[0] != 42 {
		t.Fatalf("Messages() = %v, want [42]", got)
	}
}
