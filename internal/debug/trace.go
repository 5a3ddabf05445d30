// Package debug provides instruction tracing, memory dumps and state graphs
package debug

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"

	"gameboii/internal/cpu"
)

// TraceLineLength is the width of one line of a trace file, newline included
const TraceLineLength = 100

// FormatTrace renders one executed instruction as
// "PC  opcode bytes  mnemonic  flags"
func FormatTrace(pc uint16, opcode uint16, operands [2]uint8) string {
	in := cpu.Lookup(opcode)
	if in == nil {
		return fmt.Sprintf("%04X  %04X  ???", pc, opcode)
	}

	var raw []string
	if in.Prefixed() {
		raw = append(raw, "CB")
	}
	raw = append(raw, fmt.Sprintf("%02X", uint8(opcode)))
	extra := int(in.Bytes) - len(raw)
	for i := 0; i < extra && i < len(operands); i++ {
		raw = append(raw, fmt.Sprintf("%02X", operands[i]))
	}

	return fmt.Sprintf("%04X  %-9s %-20s %s", pc, strings.Join(raw, " "), in.Disassemble(operands), in.Flags)
}

// traceLine pads or cuts a trace to a full line
func traceLine(text string) []byte {
	line := make([]byte, TraceLineLength)
	for i := range line {
		line[i] = ' '
	}
	copy(line[:TraceLineLength-1], text)
	line[TraceLineLength-1] = '\n'
	return line
}

// FileTrace writes each executed instruction to the line of a file indexed
// by its address, so that the file ends up as a disassembly of every address
// the program ran. Lines are overwritten in place.
type FileTrace struct {
	file *os.File
	err  error
}

// NewFileTrace creates or truncates the trace file at path
func NewFileTrace(path string) (*FileTrace, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	return &FileTrace{file: file}, nil
}

// TraceInstruction implements cpu.TraceSink. After the first write error
// tracing stops and the error is kept for Close.
func (t *FileTrace) TraceInstruction(pc uint16, opcode uint16, operands [2]uint8) {
	if t.err != nil {
		return
	}
	line := traceLine(FormatTrace(pc, opcode, operands))
	if _, err := t.file.WriteAt(line, int64(pc)*TraceLineLength); err != nil {
		t.err = err
		glog.Errorf("trace: write failed at 0x%04X: %v", pc, err)
	}
}

// Close closes the trace file and reports any write error
func (t *FileTrace) Close() error {
	if err := t.file.Close(); err != nil && t.err == nil {
		t.err = err
	}
	return t.err
}

// LogTrace sends every executed instruction to the log at verbosity Level
type LogTrace struct {
	Level glog.Level
}

// TraceInstruction implements cpu.TraceSink
func (t LogTrace) TraceInstruction(pc uint16, opcode uint16, operands [2]uint8) {
	if glog.V(t.Level) {
		glog.Infof("trace: %s", FormatTrace(pc, opcode, operands))
	}
}

// MultiTrace fans an instruction out to several sinks
type MultiTrace []cpu.TraceSink

// TraceInstruction implements cpu.TraceSink
func (m MultiTrace) TraceInstruction(pc uint16, opcode uint16, operands [2]uint8) {
	for _, sink := range m {
		sink.TraceInstruction(pc, opcode, operands)
	}
}
