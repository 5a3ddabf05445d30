package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatTrace(t *testing.T) {
	tests := []struct {
		name     string
		pc       uint16
		opcode   uint16
		operands [2]uint8
		want     []string
	}{
		{"nop", 0x0100, 0x00, [2]uint8{0x00, 0x00}, []string{"0100", "00", "NOP", "----"}},
		{"jump", 0x0101, 0xC3, [2]uint8{0x50, 0x01}, []string{"0101", "C3", "50", "01", "JP", "$0150", "----"}},
		{"load immediate", 0x0150, 0x3E, [2]uint8{0x12, 0xFF}, []string{"0150", "3E", "12", "LD", "A,$12", "----"}},
		{"prefixed", 0x0200, 0xCB7C, [2]uint8{0x7C, 0x00}, []string{"0200", "CB", "7C", "BIT", "7,H", "Z01-"}},
		{"illegal", 0x0300, 0xD3, [2]uint8{}, []string{"0300", "00D3", "???"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Fields(FormatTrace(tt.pc, tt.opcode, tt.operands))
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFileTraceIndexesByAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.txt")
	trace, err := NewFileTrace(path)
	if err != nil {
		t.Fatalf("NewFileTrace failed: %v", err)
	}

	trace.TraceInstruction(0x0002, 0x00, [2]uint8{})
	trace.TraceInstruction(0x0000, 0xC3, [2]uint8{0x50, 0x01})
	trace.TraceInstruction(0x0002, 0x3C, [2]uint8{}) // overwrites the NOP
	if err := trace.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) != 3*TraceLineLength {
		t.Fatalf("Expected %d bytes, got %d", 3*TraceLineLength, len(data))
	}

	line := func(pc int) string {
		return string(data[pc*TraceLineLength : (pc+1)*TraceLineLength])
	}
	if !strings.HasPrefix(line(0), "0000  C3 50 01") || !strings.HasSuffix(line(0), "\n") {
		t.Errorf("Unexpected line 0: %q", line(0))
	}
	if !strings.Contains(line(2), "INC A") {
		t.Errorf("Expected line 2 rewritten, got %q", line(2))
	}
	if strings.Trim(line(1), "\x00") != "" {
		t.Errorf("Expected line 1 untouched, got %q", line(1))
	}
}

type recordingSink struct {
	pcs []uint16
}

func (r *recordingSink) TraceInstruction(pc uint16, opcode uint16, operands [2]uint8) {
	r.pcs = append(r.pcs, pc)
}

func TestMultiTrace(t *testing.T) {
	first, second := &recordingSink{}, &recordingSink{}
	sink := MultiTrace{first, second, LogTrace{Level: 3}}

	sink.TraceInstruction(0x0150, 0x00, [2]uint8{})
	sink.TraceInstruction(0x0151, 0x00, [2]uint8{})

	for i, r := range []*recordingSink{first, second} {
		if len(r.pcs) != 2 || r.pcs[0] != 0x0150 || r.pcs[1] != 0x0151 {
			t.Errorf("Sink %d: expected [0x0150 0x0151], got %v", i, r.pcs)
		}
	}
}
