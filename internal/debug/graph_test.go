package debug

import (
	"bytes"
	"strings"
	"testing"

	"gameboii/internal/bus"
	"gameboii/internal/cpu"
)

func TestWriteStateGraph(t *testing.T) {
	state := bus.State{
		Clock: 1234,
		CPU:   cpu.State{PC: 0x0150, SP: 0xFFFE},
	}
	state.Memory.Data = make([]uint8, 0x10000)

	var buf bytes.Buffer
	WriteStateGraph(&buf, state)

	out := buf.String()
	if !strings.Contains(out, "digraph") {
		t.Fatalf("Expected a Graphviz digraph, got %q", out)
	}
	if !strings.Contains(out, "1234") {
		t.Error("Expected the clock in the graph")
	}
	if len(state.Memory.Data) != 0x10000 {
		t.Error("Expected the caller's snapshot untouched")
	}
}
